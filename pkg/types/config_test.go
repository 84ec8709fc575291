// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestMatchConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchConfig)
		errMsg string
	}{
		{
			name:   "defaults",
			mutate: func(*MatchConfig) {},
		},
		{
			name:   "weights below one",
			mutate: func(c *MatchConfig) { c.TitleWeight, c.AuthorWeight = 0.5, 0.2 },
		},
		{
			name:   "title and author weights exceed one",
			mutate: func(c *MatchConfig) { c.TitleWeight, c.AuthorWeight = 0.8, 0.5 },
			errMsg: "match.title_weight + match.author_weight",
		},
		{
			name:   "jaccard and sequence weights exceed one",
			mutate: func(c *MatchConfig) { c.JaccardWeight, c.SequenceWeight = 0.9, 0.9 },
			errMsg: "match.jaccard_weight + match.sequence_weight",
		},
		{
			name:   "threshold out of range",
			mutate: func(c *MatchConfig) { c.Threshold = 1.2 },
			errMsg: "match.threshold",
		},
		{
			name: "first invalid field is reported",
			mutate: func(c *MatchConfig) {
				c.TitleWeight, c.Threshold, c.SequenceWeight = -1, 2, 3
			},
			errMsg: "match.title_weight must be within",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig().Match
			tt.mutate(&c)
			// Repeat to catch nondeterministic ordering.
			for range 20 {
				err := c.Validate()
				if tt.errMsg == "" {
					require.NoError(t, err)
					continue
				}
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestConfigValidate_Workers(t *testing.T) {
	c := DefaultConfig()
	c.Harvest.Workers = 0
	assert.ErrorContains(t, c.Validate(), "harvest.workers")
}
