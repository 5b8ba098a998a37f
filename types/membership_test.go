package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMembership(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, err := NewMembership(1, 3)
		require.NoError(t, err)
		assert.Equal(t, 1, m.MemberNumber)
		assert.Equal(t, 3, m.ClusterSize)
	})

	t.Run("single node cluster", func(t *testing.T) {
		m, err := NewMembership(1, 1)
		require.NoError(t, err)
		assert.Equal(t, "1/1", m.String())
	})

	t.Run("last slot", func(t *testing.T) {
		_, err := NewMembership(5, 5)
		require.NoError(t, err)
	})
}

func TestMembership_Validate(t *testing.T) {
	tests := []struct {
		name         string
		memberNumber int
		clusterSize  int
		wantErr      bool
	}{
		{"valid first slot", 1, 3, false},
		{"valid last slot", 3, 3, false},
		{"zero member number", 0, 3, true},
		{"negative member number", -1, 3, true},
		{"member number beyond size", 4, 3, true},
		{"zero cluster size", 1, 0, true},
		{"negative cluster size", 1, -2, true},
		{"zero value", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Membership{MemberNumber: tt.memberNumber, ClusterSize: tt.clusterSize}
			err := m.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrInvalidMembership)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMembership_String(t *testing.T) {
	assert.Equal(t, "2/5", Membership{MemberNumber: 2, ClusterSize: 5}.String())
	assert.Equal(t, "1/1", Membership{MemberNumber: 1, ClusterSize: 1}.String())
}
