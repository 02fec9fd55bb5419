// Package calc provides basic arithmetic helpers.
package calc

import "errors"

// ErrDivideByZero is returned by Divide when the divisor is zero.
var ErrDivideByZero = errors.New("cannot divide by zero")

// Add returns the sum of x and y.
func Add(x, y float64) float64 {
	return x + y
}

// Subtract returns x minus y.
func Subtract(x, y float64) float64 {
	return x - y
}

// Multiply returns the product of x and y.
func Multiply(x, y float64) float64 {
	return x * y
}

// Divide returns x divided by y.
func Divide(x, y float64) (float64, error) {
	if y == 0 {
		return 0, ErrDivideByZero
	}
	return x / y, nil
}
