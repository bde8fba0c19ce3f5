package authx_test

import (
	"encoding/json"
	"testing"

	"github.com/arkforge/scaffold/pkg/authx"
	"github.com/arkforge/scaffold/pkg/jwtx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateCustomClaims(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	principal := authx.Principal{
		ID:       id,
		Username: "alice",
		Roles:    []string{"role-b", "role-a", "role-b"},
	}

	claims := authx.GenerateCustomClaims(principal, authx.DeviceMobile, nil)

	t.Run("identity claims first", func(t *testing.T) {
		require.Equal(t, []string{id.String()}, claims.Get("xid"))
		require.Equal(t, []string{"alice"}, claims.Get("usr"))
		require.Equal(t, []string{"mobile"}, claims.Get("deviceType"))
	})

	t.Run("one role entry per role, source order, no dedupe", func(t *testing.T) {
		require.Equal(t, []string{"role-b", "role-a", "role-b"}, claims.Get("role"))
	})

	t.Run("extra claims appended after built-ins", func(t *testing.T) {
		extra := authx.ClaimMap{}
		extra.Add("ci", "client-a")
		extra.Add("tenant", "t1", "t2")

		withExtra := authx.GenerateCustomClaims(principal, authx.DeviceWeb, extra)
		entries := []authx.ClaimValues(withExtra)
		require.Equal(t, "ci", entries[len(entries)-2].Name)
		require.Equal(t, "tenant", entries[len(entries)-1].Name)
		require.Equal(t, []string{"t1", "t2"}, withExtra.Get("tenant"))
	})
}

func TestClaimMapExpandInto(t *testing.T) {
	t.Parallel()

	m := authx.ClaimMap{}
	m.Add("a", "1", "2")
	m.Add("b", "3")
	m.Add("a", "4")

	var set jwtx.ClaimSet
	m.ExpandInto(&set)

	// Sum of per-name value counts, as individual entries.
	require.Equal(t, 4, set.Len())
	require.Equal(t, []string{"1", "2", "4"}, set.Values("a"))
	require.Equal(t, []string{"3"}, set.Values("b"))

	entries := set.Entries()
	require.Equal(t, "a", entries[0].Name)
	require.Equal(t, "a", entries[1].Name)
	require.Equal(t, "b", entries[2].Name)
	require.Equal(t, "a", entries[3].Name)
}

func TestClaimMapMarshalJSON(t *testing.T) {
	t.Parallel()

	m := authx.ClaimMap{}
	m.Add("usr", "alice")
	m.Add("role", "a")
	m.Add("role", "b")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.Equal(t, `{"usr":["alice"],"role":["a","b"]}`, string(data))
}

func TestParseDeviceType(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]authx.DeviceType{
		"web":     authx.DeviceWeb,
		"Mobile":  authx.DeviceMobile,
		"DESKTOP": authx.DeviceDesktop,
		"":        authx.DeviceWeb,
	} {
		got, err := authx.ParseDeviceType(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := authx.ParseDeviceType("toaster")
	require.Error(t, err)
}
