package utils

type Comparable[T any] interface {
	Compare(T) int
}

// BinarySearch returns the index of an element of the sorted slice a comparing
// equal to x, or -1.
func BinarySearch[T Comparable[T]](a []T, x T) int {
	start, mid, end := 0, 0, len(a)-1
	for start <= end {
		mid = (start + end) >> 1
		el := a[mid]
		switch {
		case el.Compare(x) > 0:
			end = mid - 1
		case el.Compare(x) < 0:
			start = mid + 1
		default:
			return mid
		}
	}
	return -1
}
