package redis_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	redisstore "github.com/gosuda/hq/internal/store/redis"
)

func TestBoardChannel(t *testing.T) {
	t.Parallel()

	tenantID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	tests := []struct {
		name     string
		tenantID uuid.UUID
		kind     string
		want     string
	}{
		{
			name:     "investors",
			tenantID: tenantID,
			kind:     "investors",
			want:     "board:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee:investors",
		},
		{
			name:     "missions",
			tenantID: tenantID,
			kind:     "missions",
			want:     "board:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee:missions",
		},
		{
			name:     "nil tenant",
			tenantID: uuid.Nil,
			kind:     "investors",
			want:     "board:00000000-0000-0000-0000-000000000000:investors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, redisstore.BoardChannel(tt.tenantID, tt.kind))
		})
	}
}

func TestBoardChannel_Isolation(t *testing.T) {
	t.Parallel()

	a := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	b := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	assert.NotEqual(t, redisstore.BoardChannel(a, "investors"), redisstore.BoardChannel(b, "investors"),
		"tenants must not share a channel")
	assert.NotEqual(t, redisstore.BoardChannel(a, "investors"), redisstore.BoardChannel(a, "missions"),
		"board kinds must not share a channel")
}
