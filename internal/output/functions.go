package output

import "fmt"

// Summary formats the end-of-run counts for console display.
func Summary(fetched, failed, skipped int) string {
	return fmt.Sprintf("%s %d fetched %s %d failed %s %d skipped",
		StyleSymbols["bullet"], fetched,
		StyleSymbols["bullet"], failed,
		StyleSymbols["bullet"], skipped)
}

func PrintRunSummary(fetched, failed, skipped int) {
	PrintHeader("Run complete")
	PrintDetail(Summary(fetched, failed, skipped))
}
