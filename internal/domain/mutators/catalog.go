package mutators

// CatalogOptions selects which mutator families a run applies.
type CatalogOptions struct {
	// EHStress adds the guarded-region catalog: every try/catch/finally
	// primitive plus its combinator expansion.
	EHStress bool

	// StructStress adds the struct-receiver rerouting family.
	StructStress bool

	// EmptyBlocks adds bare-block insertion.
	EmptyBlocks bool
}

// BuildCatalog returns the fixed, ordered list of top-level mutators for a
// run. Order matters: the shared random source is consumed in application
// order, so a given seed reproduces identical variants only when the catalog
// is stable. Block splitting and normalization always run.
func BuildCatalog(opts CatalogOptions) []*Mutator {
	catalog := []*Mutator{
		Prim(SplitBlock),
		Prim(NormalizeBlock),
	}

	if opts.EmptyBlocks {
		catalog = append(catalog,
			Prim(EmptyBlocks),
			Random(Prim(EmptyBlocks), 0.5),
		)
	}

	if opts.StructStress {
		catalog = append(catalog,
			Prim(StructRun),
			Repeat(Prim(StructRun), 2),
			Random(Prim(StructRun), 0.5),
		)
	}

	if opts.EHStress {
		catalog = append(catalog, ehCatalog()...)
	}

	return catalog
}

// ehCatalog expands the four guarded-region primitives through every
// combinator: 4 plain, 4 repeated, 4 normalize-combos, 4 mutation-time
// randoms, 4 execution-time randoms, 6 pairwise choices, plus two
// split-block compositions. 28 mutators.
func ehCatalog() []*Mutator {
	prims := []PrimitiveKind{GuardedWrap, EmptyTryFinally, TryEmptyFinally, MoveIntoCatch}

	var catalog []*Mutator

	for _, kind := range prims {
		catalog = append(catalog,
			Prim(kind),
			Repeat(Prim(kind), 2),
			Combo(Prim(NormalizeBlock), Prim(kind)),
			Random(Prim(kind), 0.5),
			RandomRuntime(Prim(kind), 0.5),
		)
	}

	for i := 0; i < len(prims); i++ {
		for j := i + 1; j < len(prims); j++ {
			catalog = append(catalog, RandomChoice(Prim(prims[i]), Prim(prims[j]), 0.5))
		}
	}

	catalog = append(catalog,
		Combo(Prim(SplitBlock), Prim(GuardedWrap)),
		Repeat(Prim(SplitBlock), 3),
	)

	return catalog
}
