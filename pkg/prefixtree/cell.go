package prefixtree

import (
	"fmt"

	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// Cell is one node of a grid: a token and the extent it decodes to.
type Cell struct {
	Token string
	Rect  geo.Rectangle
}

// Level is the cell's depth; the world is level 0.
func (c Cell) Level() int {
	return len(c.Token)
}

// AncestorTokens returns the tokens of every ancestor below the world, from
// the top level down.
func (c Cell) AncestorTokens() []string {
	if len(c.Token) < 2 {
		return nil
	}
	out := make([]string, 0, len(c.Token)-1)
	for i := 1; i < len(c.Token); i++ {
		out = append(out, c.Token[:i])
	}
	return out
}

func (c Cell) String() string {
	return fmt.Sprintf("Cell(%q, %s)", c.Token, c.Rect)
}
