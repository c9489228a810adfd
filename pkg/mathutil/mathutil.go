// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mathutil

import (
	"cmp"
	"math"
)

// Max returns the larger of x and y.
func Max[T cmp.Ordered](x T, y T) T {
	return max(x, y)
}

// Min returns the smaller of x and y.
func Min[T cmp.Ordered](x T, y T) T {
	return min(x, y)
}

// FloorZero clamps negative values to zero.
func FloorZero[T ~int | ~int64 | ~float64](x T) T {
	if x < 0 {
		return 0
	}
	return x
}

// Ratio returns a/b, or a itself when b is zero. Used for kill/death and win/loss ratios.
func Ratio(a, b int) float64 {
	if b <= 0 {
		return float64(a)
	}
	return Round2(float64(a) / float64(b))
}

// Round2 rounds to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
