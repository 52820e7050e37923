package token

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenCommand(t *testing.T) {
	for _, show := range []bool{false, true} {
		var out bytes.Buffer
		cmd := Command()
		cmd.Writer = &out
		args := []string{"token", "--emulator-host", "localhost:8080"}
		if show {
			args = append(args, "--show")
		}
		require.NoError(t, cmd.Run(context.Background(), args))
		require.Contains(t, out.String(), "source:  static")
		require.Contains(t, out.String(), "expires: ")
		if show {
			require.Contains(t, out.String(), "token:   owner")
		} else {
			require.NotContains(t, out.String(), "owner")
		}
	}
}
