package aggregates

// WriteTxOwnership names who opens the transaction around an aggregate write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: every write method opens and commits its own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy limits which reads an aggregate may perform.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: only the reads a write decision depends on.
	// Read models (history, session views) stay on the table repos.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

// Contract is the policy an aggregate declares. executeWrite refuses to run
// writes for a contract that does not own its transactions.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Declared reports whether the contract was filled in at all.
func (c Contract) Declared() bool {
	return c.Name != ""
}
