package consul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsulStore_PrefixNormalization(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"default", "", "dittometa/"},
		{"adds trailing slash", "team/meta", "team/meta/"},
		{"strips leading slash", "/team/meta/", "team/meta/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewConsulStore(ConsulStoreConfig{Prefix: tt.prefix})
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.prefix)
			assert.Equal(t, tt.want+"fileMetadata:u1", store.buildKey("fileMetadata:u1"))
		})
	}
}
