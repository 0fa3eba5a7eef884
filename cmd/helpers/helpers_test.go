package helpers

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFlagsFromEnv(t *testing.T) {
	tests := map[string]struct {
		args        []string
		env         map[string]string
		expected    string
		expectedN   int
		expectedErr string
	}{
		"defaults": {
			expected:  "presto:8080",
			expectedN: 1,
		},
		"environment": {
			env:       map[string]string{"TEST_PRESTO_HOST": "presto.local:8080", "TEST_BILLING_WORKERS": "4"},
			expected:  "presto.local:8080",
			expectedN: 4,
		},
		"command line wins": {
			args:      []string{"--presto-host", "cli:8080"},
			env:       map[string]string{"TEST_PRESTO_HOST": "presto.local:8080"},
			expected:  "cli:8080",
			expectedN: 1,
		},
		"invalid value": {
			env:         map[string]string{"TEST_BILLING_WORKERS": "many"},
			expected:    "presto:8080",
			expectedN:   1,
			expectedErr: `invalid value "many" for TEST_BILLING_WORKERS`,
		},
		"invalid value keeps the previous value next to a valid one": {
			env:         map[string]string{"TEST_PRESTO_HOST": "presto.local:8080", "TEST_BILLING_WORKERS": "-"},
			expected:    "presto.local:8080",
			expectedN:   1,
			expectedErr: `invalid value "-" for TEST_BILLING_WORKERS`,
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			for k, v := range tt.env {
				require.NoError(t, os.Setenv(k, v))
			}
			defer func() {
				for k := range tt.env {
					os.Unsetenv(k)
				}
			}()

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			host := fs.String("presto-host", "presto:8080", "")
			workers := fs.Int("billing-workers", 1, "")
			require.NoError(t, fs.Parse(tt.args))

			err := SetFlagsFromEnv(fs, "TEST")
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, *host)
			assert.Equal(t, tt.expectedN, *workers)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger("debug", false, nil)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = SetupLogger("loud", false, nil)
	assert.EqualError(t, err, "invalid log level: loud")
}
