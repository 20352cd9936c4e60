// Package arith holds the arithmetic operations served as tools.
package arith

// Add returns a + b. A sum outside the int64 range yields ErrIntegerOverflow.
func Add(a, b int64) (int64, error) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, ErrIntegerOverflow
	}
	return sum, nil
}

// Divide returns the true quotient a / b, which may be fractional.
func Divide(a, b int64) (float64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return float64(a) / float64(b), nil
}
