//go:build !linux && !darwin

package lock

const haveStartID = false

func startTicks(int) (int64, bool) { return 0, false }

func startID(int) (string, bool) { return "", false }
