package types

import "fmt"

// Membership identifies one worker's slot within a cluster of a given size.
//
// A fresh Membership is computed for every worker on every rebalance pass and
// discarded once delivered; it is never cached across passes. The partition
// ranges a worker replicates are derived externally from this pair.
type Membership struct {
	// MemberNumber is the worker's 1-based slot, in 1..ClusterSize.
	MemberNumber int `json:"memberNumber"`

	// ClusterSize is the total number of workers receiving work this pass.
	ClusterSize int `json:"clusterSize"`
}

// NewMembership creates a validated Membership.
//
// Returns:
//   - Membership: The membership value
//   - error: ErrInvalidMembership if the pair violates 1 <= member <= size
func NewMembership(memberNumber, clusterSize int) (Membership, error) {
	m := Membership{MemberNumber: memberNumber, ClusterSize: clusterSize}
	if err := m.Validate(); err != nil {
		return Membership{}, err
	}

	return m, nil
}

// Validate checks the membership invariant 1 <= MemberNumber <= ClusterSize.
func (m Membership) Validate() error {
	if m.ClusterSize < 1 {
		return fmt.Errorf("%w: cluster size %d", ErrInvalidMembership, m.ClusterSize)
	}
	if m.MemberNumber < 1 || m.MemberNumber > m.ClusterSize {
		return fmt.Errorf("%w: member number %d not in 1..%d",
			ErrInvalidMembership, m.MemberNumber, m.ClusterSize)
	}

	return nil
}

// String renders the membership as "memberNumber/clusterSize".
func (m Membership) String() string {
	return fmt.Sprintf("%d/%d", m.MemberNumber, m.ClusterSize)
}
