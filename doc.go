// Package erm maps components, plain data records addressed by an entity
// identifier, onto relational tables and reads them back as typed,
// joined views.
//
// Every component type has its own table keyed by an entity column. An
// archetype is a struct of components that is written in one transaction
// and read with one joined select:
//
//	b, err := erm.OpenSQLite[int64](":memory:")
//	if err != nil {
//		return err
//	}
//	defer b.Close()
//
//	if err := erm.Register[Person](ctx, b); err != nil {
//		return err
//	}
//	if err := b.Insert(ctx, 1, &Person{Name: Name{"Jimothy"}, Age: Age{10}}); err != nil {
//		return err
//	}
//
//	adults := erm.List[Person](b).Where(AgeField.GTE(18))
//	for e, err := range adults.Fetch(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(e.Entity, e.Value.Name.Name)
//	}
//
// Components implement the Component interface, either by hand or with the
// code that cmd/ermgen generates from a YAML schema. Statement text is
// rendered once per query shape and cached for the lifetime of the process.
package erm
