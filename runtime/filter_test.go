package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Acceptable(t *testing.T) {
	req := require.New(t)

	req.False(Acceptable(""))
	req.False(Acceptable("   \t\n  "))
	req.False(Acceptable("ok"))
	req.False(Acceptable("sure thing"))

	req.True(Acceptable("one two three"))
	req.True(Acceptable("  padded   reply   here  "))
	req.True(Acceptable("I am not sure about that"))
}
