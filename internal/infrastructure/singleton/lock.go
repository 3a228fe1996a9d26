package singleton

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

const (
	// DefaultPort 默认监听端口
	DefaultPort = ":19970"
	// HealthCheckTimeout 健康检查超时时间
	HealthCheckTimeout = 2 * time.Second
)

// CheckAndLock 通过抢占监听端口实现单实例
// 端口可用时返回 listener（调用方随后释放，交给 HTTP 服务器监听）；
// 端口被占用且占用者通过 /health 健康检查时返回 (nil, nil)，调用方应退出；
// 端口被占用但占用者不健康时返回错误，留给人工处理
func CheckAndLock(port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", port)
	if err == nil {
		return listener, nil
	}

	if !isAddrInUse(err) {
		return nil, fmt.Errorf("监听端口失败: %w", err)
	}

	if isInstanceRunning(port) {
		return nil, nil
	}
	return nil, fmt.Errorf("端口 %s 被占用，但健康检查失败，占用进程可能已僵死", port)
}

// isAddrInUse 判断监听失败是否因为地址已被占用
func isAddrInUse(err error) bool {
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	// Windows 下 WSAEADDRINUSE 不映射到 syscall.EADDRINUSE
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == 10048
}

// isInstanceRunning 探测端口上是否有健康的实例
func isInstanceRunning(port string) bool {
	client := &http.Client{Timeout: HealthCheckTimeout}

	resp, err := client.Get(fmt.Sprintf("http://localhost%s/health", port))
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
