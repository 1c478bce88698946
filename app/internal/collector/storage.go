package collector

import (
	"droidmon/app/internal/models"

	"golang.org/x/sys/unix"
)

const gib = 1024 * 1024 * 1024

// Storage reports free and total capacity of the data partition in GB; zeros
// when statfs fails.
func (r *Readers) Storage() Reading[models.StorageStats] {
	var st unix.Statfs_t
	if err := r.statfs(r.src.DataDir, &st); err != nil {
		return fallback(models.StorageStats{}, err)
	}
	bsize := uint64(st.Bsize)
	return ok(models.StorageStats{
		InternalFreeGB:  float64(st.Bavail*bsize) / gib,
		InternalTotalGB: float64(st.Blocks*bsize) / gib,
	})
}
