package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harsheyeditor/OneBlood/core/cluster"
)

func TestStaticVerifier(t *testing.T) {
	v := NewStaticVerifier()
	v.Register("tok-hosp", Actor{Identity: "hosp-1", Role: cluster.RoleHospital, Verified: true})
	v.Register("tok-don", Actor{Identity: "don-1", Role: cluster.RoleDonor})

	a, err := v.Verify(context.Background(), "tok-hosp")
	require.NoError(t, err)
	require.Equal(t, "hosp-1", a.Identity)
	require.True(t, a.Verified)

	a, err = v.Verify(context.Background(), "tok-don")
	require.NoError(t, err)
	require.Equal(t, cluster.RoleDonor, a.Role)
	require.False(t, a.Verified)

	_, err = v.Verify(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestStaticVerifierReRegisterOverwrites(t *testing.T) {
	v := NewStaticVerifier()
	v.Register("tok", Actor{Identity: "hosp-1", Role: cluster.RoleHospital})
	v.Register("tok", Actor{Identity: "hosp-1", Role: cluster.RoleHospital, Verified: true})

	a, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	require.True(t, a.Verified)
}
