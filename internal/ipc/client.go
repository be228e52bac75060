package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Status retrieves daemon and session state.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.call("Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionStart begins a focus session.
func (c *Client) SessionStart(req SessionStartRequest) (*SessionStartResponse, error) {
	var resp SessionStartResponse
	if err := c.call("SessionStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionEnd finishes the active focus session.
func (c *Client) SessionEnd() (*SessionEndResponse, error) {
	var resp SessionEndResponse
	if err := c.call("SessionEnd", SessionEndRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionStatus returns the live session snapshot.
func (c *Client) SessionStatus() (*SessionStatusResponse, error) {
	var resp SessionStatusResponse
	if err := c.call("SessionStatus", SessionStatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SessionLog returns the active session's activity log.
func (c *Client) SessionLog() (*SessionLogResponse, error) {
	var resp SessionLogResponse
	if err := c.call("SessionLog", SessionLogRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList returns stored sessions, newest first.
func (c *Client) HistoryList(limit int) (*HistoryListResponse, error) {
	var resp HistoryListResponse
	if err := c.call("HistoryList", HistoryListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryShow returns one stored session.
func (c *Client) HistoryShow(id string) (*HistoryShowResponse, error) {
	var resp HistoryShowResponse
	if err := c.call("HistoryShow", HistoryShowRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryDelete removes a stored session.
func (c *Client) HistoryDelete(id string) (*HistoryDeleteResponse, error) {
	var resp HistoryDeleteResponse
	if err := c.call("HistoryDelete", HistoryDeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
