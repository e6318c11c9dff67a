package loader

// splitPoints returns the two cut points of the 80/10/10 partition over
// n samples. Integer math keeps 8n/10 exactly equal to floor(0.8*n)
// with no float rounding.
func splitPoints(n int) (split1, split2 int) {
	return n * 8 / 10, n * 9 / 10
}
