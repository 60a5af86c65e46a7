package sdbx

// Progress is one progress report of an upload or download.
type Progress struct {
	State   State
	Percent int // 0-100, never decreases within one operation
	Message string
}

// ProgressFunc receives progress reports. It is called on the goroutine
// running the operation and should return quickly.
type ProgressFunc func(Progress)

// Percent ranges of each upload stage.
const (
	uploadPrepareEnd = 15
	uploadKeyEnd     = 20
	uploadEncryptEnd = 50
	uploadInitEnd    = 60
	uploadPutEnd     = 95
)

// Percent ranges of each download stage.
const (
	downloadMetadataEnd = 5
	downloadUnlockEnd   = 25
	downloadRequestEnd  = 30
	downloadFetchEnd    = 70
	downloadDecryptEnd  = 95
)

// bytesPercent converts a byte count into a percent of total; it returns 0
// when the total is unknown.
func bytesPercent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(min(done, total) * 100 / total)
}
