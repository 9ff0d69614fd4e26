package errors

import "errors"

// ErrLockTimeout 在等待期限内未能获得槽位锁
var ErrLockTimeout = errors.New("该时段正被其他操作占用，请稍后重试")

// ErrLockLost 释放锁时发现锁已过期或被他人持有
var ErrLockLost = errors.New("槽位锁已失效")
