//go:build darwin

package lock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const haveStartID = true

func startTicks(int) (int64, bool) { return 0, false }

func startID(pid int) (string, bool) {
	if pid <= 0 {
		return "", false
	}
	kp, err := unix.SysctlKinfoProc("kern.proc.pid", pid)
	if err != nil || kp == nil {
		return "", false
	}
	tv := kp.Proc.P_starttime
	return fmt.Sprintf("lstart:%d", int64(tv.Sec)*1e9+int64(tv.Usec)*1e3), true
}
