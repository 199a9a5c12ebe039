package query

import "fmt"

// Field is one indexable value produced for a shape: a token for the grid
// strategies or a number for the point-vector strategy.
type Field struct {
	Name    string
	Token   string
	Value   float64
	Numeric bool
}

// TokenField returns a term field.
func TokenField(name, token string) Field {
	return Field{Name: name, Token: token}
}

// NumericField returns a numeric field.
func NumericField(name string, value float64) Field {
	return Field{Name: name, Value: value, Numeric: true}
}

func (f Field) String() string {
	if f.Numeric {
		return fmt.Sprintf("%s=%g", f.Name, f.Value)
	}
	return f.Name + "=" + f.Token
}
