package presence_test

import (
	"testing"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/stretchr/testify/require"
)

func TestComputeOnlineNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []presence.Record
		want    []string
	}{
		{
			name:    "empty collection",
			records: nil,
			want:    []string{},
		},
		{
			name: "offline records are skipped",
			records: []presence.Record{
				{Username: "Trinity", Online: false},
				{Username: "Morpheus", Online: true},
			},
			want: []string{"Morpheus"},
		},
		{
			name: "same name online and offline yields one entry",
			records: []presence.Record{
				{Username: "Alice", Online: true},
				{Username: "Alice", Online: false},
			},
			want: []string{"Alice"},
		},
		{
			name: "different uids sharing a name collapse",
			records: []presence.Record{
				{Username: "Neo", Online: true},
				{Username: "Neo", Online: true},
			},
			want: []string{"Neo"},
		},
		{
			name: "first occurrence order is kept",
			records: []presence.Record{
				{Username: "Zed", Online: true},
				{Username: "Amy", Online: true},
				{Username: "Zed", Online: true},
			},
			want: []string{"Zed", "Amy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, presence.ComputeOnlineNames(tt.records))
		})
	}
}

func TestOnlineNamesIsDeterministic(t *testing.T) {
	t.Parallel()

	a := map[string]presence.Record{}
	a["u3"] = presence.Record{Username: "Carol", Online: true}
	a["u1"] = presence.Record{Username: "Alice", Online: true}
	a["u2"] = presence.Record{Username: "Bob", Online: false}

	b := map[string]presence.Record{}
	b["u2"] = presence.Record{Username: "Bob", Online: false}
	b["u1"] = presence.Record{Username: "Alice", Online: true}
	b["u3"] = presence.Record{Username: "Carol", Online: true}

	want := []string{"Alice", "Carol"}
	for range 20 {
		require.Equal(t, want, presence.OnlineNames(a))
		require.Equal(t, want, presence.OnlineNames(b))
	}
}

func TestResolveUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile string
		display string
		want    string
	}{
		{"profile wins", "neo", "Thomas Anderson", "neo"},
		{"display name when profile empty", "", "Thomas Anderson", "Thomas Anderson"},
		{"whitespace profile is ignored", "   ", "Trinity", "Trinity"},
		{"anonymous fallback", "", "", presence.AnonymousUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, presence.ResolveUsername(tt.profile, tt.display))
		})
	}
}
