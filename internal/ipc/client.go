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

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Class360.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Class360.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status summary.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Class360.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Enqueue submits a job and returns its id.
func (c *Client) Enqueue(req EnqueueRequest) (*EnqueueResponse, error) {
	var resp EnqueueResponse
	if err := c.client.Call("Class360.Enqueue", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns tier depths and pending jobs.
func (c *Client) QueueList() (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Class360.QueueList", QueueListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear discards all pending jobs.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Class360.QueueClear", QueueClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingStart begins a capture session for a classroom.
func (c *Client) RecordingStart(classroomID, source string) (*RecordingStartResponse, error) {
	var resp RecordingStartResponse
	req := RecordingStartRequest{ClassroomID: classroomID, Source: source}
	if err := c.client.Call("Class360.RecordingStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingStop ends a classroom's capture session.
func (c *Client) RecordingStop(classroomID string) (*RecordingStopResponse, error) {
	var resp RecordingStopResponse
	req := RecordingStopRequest{ClassroomID: classroomID}
	if err := c.client.Call("Class360.RecordingStop", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingStatus reports whether a classroom is recording.
func (c *Client) RecordingStatus(classroomID string) (*RecordingStatusResponse, error) {
	var resp RecordingStatusResponse
	req := RecordingStatusRequest{ClassroomID: classroomID}
	if err := c.client.Call("Class360.RecordingStatus", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Split cuts a full-day recording into per-period segments.
func (c *Client) Split(req SplitRequest) (*SplitResponse, error) {
	var resp SplitResponse
	if err := c.client.Call("Class360.Split", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VideoGet loads one video entity.
func (c *Client) VideoGet(id string) (*VideoGetResponse, error) {
	var resp VideoGetResponse
	if err := c.client.Call("Class360.VideoGet", VideoGetRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProgressGet retrieves the latest snapshot for one entity.
func (c *Client) ProgressGet(entityID string) (*ProgressGetResponse, error) {
	var resp ProgressGetResponse
	req := ProgressGetRequest{EntityID: entityID}
	if err := c.client.Call("Class360.ProgressGet", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProgressList retrieves every in-flight snapshot.
func (c *Client) ProgressList() (*ProgressListResponse, error) {
	var resp ProgressListResponse
	if err := c.client.Call("Class360.ProgressList", ProgressListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail reads daemon log lines starting at the given offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Class360.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
