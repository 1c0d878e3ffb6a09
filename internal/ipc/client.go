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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Murmur.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Murmur.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingsList returns every stored setting.
func (c *Client) SettingsList() (*SettingsListResponse, error) {
	var resp SettingsListResponse
	if err := c.client.Call("Murmur.SettingsList", SettingsListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingGet fetches a single setting by key.
func (c *Client) SettingGet(key string) (*SettingGetResponse, error) {
	var resp SettingGetResponse
	if err := c.client.Call("Murmur.SettingGet", SettingGetRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingSave stores one key/value pair.
func (c *Client) SettingSave(key, value string) (*SettingSaveResponse, error) {
	var resp SettingSaveResponse
	if err := c.client.Call("Murmur.SettingSave", SettingSaveRequest{Key: key, Value: value}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingList returns recordings optionally filtered by statuses.
func (c *Client) RecordingList(statuses []string) (*RecordingListResponse, error) {
	var resp RecordingListResponse
	if err := c.client.Call("Murmur.RecordingList", RecordingListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingGet returns a single recording, nil when absent.
func (c *Client) RecordingGet(id string) (*RecordingGetResponse, error) {
	var resp RecordingGetResponse
	if err := c.client.Call("Murmur.RecordingGet", RecordingGetRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingAdd registers an audio file explicitly.
func (c *Client) RecordingAdd(path string) (*RecordingAddResponse, error) {
	var resp RecordingAddResponse
	if err := c.client.Call("Murmur.RecordingAdd", RecordingAddRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingUpdateStatus moves a recording to a new status.
func (c *Client) RecordingUpdateStatus(id, status, errorMessage string) (*RecordingUpdateStatusResponse, error) {
	var resp RecordingUpdateStatusResponse
	req := RecordingUpdateStatusRequest{ID: id, Status: status, ErrorMessage: errorMessage}
	if err := c.client.Call("Murmur.RecordingUpdateStatus", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingRemove deletes a recording.
func (c *Client) RecordingRemove(id string) (*RecordingRemoveResponse, error) {
	var resp RecordingRemoveResponse
	if err := c.client.Call("Murmur.RecordingRemove", RecordingRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranscribeStart enqueues a transcription job.
func (c *Client) TranscribeStart(recordingID, filePath, language string) (*TranscribeStartResponse, error) {
	var resp TranscribeStartResponse
	req := TranscribeStartRequest{RecordingID: recordingID, FilePath: filePath, Language: language}
	if err := c.client.Call("Murmur.TranscribeStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranscribeCancel cancels a queued or active job.
func (c *Client) TranscribeCancel(recordingID string) (*TranscribeCancelResponse, error) {
	var resp TranscribeCancelResponse
	if err := c.client.Call("Murmur.TranscribeCancel", TranscribeCancelRequest{RecordingID: recordingID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranscribeStatus fetches the authoritative status for a recording.
func (c *Client) TranscribeStatus(recordingID string) (*TranscribeStatusResponse, error) {
	var resp TranscribeStatusResponse
	if err := c.client.Call("Murmur.TranscribeStatus", TranscribeStatusRequest{RecordingID: recordingID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranscribeProgress fetches the active job's latest percentage.
func (c *Client) TranscribeProgress(recordingID string) (*TranscribeProgressResponse, error) {
	var resp TranscribeProgressResponse
	if err := c.client.Call("Murmur.TranscribeProgress", TranscribeProgressRequest{RecordingID: recordingID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranscriptionGet returns the transcript for a recording, nil when absent.
func (c *Client) TranscriptionGet(recordingID string) (*TranscriptionGetResponse, error) {
	var resp TranscriptionGetResponse
	if err := c.client.Call("Murmur.TranscriptionGet", TranscriptionGetRequest{RecordingID: recordingID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TranscriptionSave replaces the edited transcript content.
func (c *Client) TranscriptionSave(recordingID, content string) (*TranscriptionSaveResponse, error) {
	var resp TranscriptionSaveResponse
	req := TranscriptionSaveRequest{RecordingID: recordingID, Content: content}
	if err := c.client.Call("Murmur.TranscriptionSave", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchAdd starts watching a directory.
func (c *Client) WatchAdd(path string) (*WatchAddResponse, error) {
	var resp WatchAddResponse
	if err := c.client.Call("Murmur.WatchAdd", WatchAddRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchRemove stops watching a directory.
func (c *Client) WatchRemove(path string) (*WatchRemoveResponse, error) {
	var resp WatchRemoveResponse
	if err := c.client.Call("Murmur.WatchRemove", WatchRemoveRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchList fetches the watched directory set.
func (c *Client) WatchList() (*WatchListResponse, error) {
	var resp WatchListResponse
	if err := c.client.Call("Murmur.WatchList", WatchListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events long-polls for notifications after the given sequence.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Murmur.Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
