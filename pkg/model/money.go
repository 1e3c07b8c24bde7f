package model

import "fmt"

// Money is an amount in currency minor units (cents).
type Money int64

const MinorUnitsPerUnit = 100

func Units(units int64) Money {
	return Money(units * MinorUnitsPerUnit)
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/MinorUnitsPerUnit, v%MinorUnitsPerUnit)
}
