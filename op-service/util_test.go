package opservice

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestFormatVersion(t *testing.T) {
	require.Equal(t, "v0.0.1", FormatVersion("v0.0.1", "", "", ""))
	require.Equal(t, "v0.0.1-0123abcd-1700000000", FormatVersion("v0.0.1", "0123abcdef99", "1700000000", ""))
	require.Equal(t, "v0.0.1-abc-dev", FormatVersion("v0.0.1", "abc", "", "dev"))
}

func TestValidateEnvVars(t *testing.T) {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "a", EnvVars: PrefixEnvVar("OP_BALL", "A")},
		&cli.BoolFlag{Name: "b", EnvVars: PrefixEnvVar("OP_BALL", "B")},
	}
	provided := []string{"OP_BALL_A=1", "OP_BALL_C=2", "OTHER_D=3", "OP_BALL_B=true"}
	require.Equal(t, []string{"OP_BALL_C"}, validateEnvVars("OP_BALL", provided, cliFlagsToEnvVars(flags)))
}
