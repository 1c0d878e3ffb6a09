package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"murmur/internal/api"
	"murmur/internal/daemon"
	"murmur/internal/logging"
	"murmur/internal/store"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Murmur", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.WatchedDirs = status.WatchedDirs
	resp.QueueLength = status.QueueLength
	resp.Stats = make(map[string]int, len(status.Stats))
	for k, v := range status.Stats {
		resp.Stats[string(k)] = v
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) SettingsList(_ SettingsListRequest, resp *SettingsListResponse) error {
	settings, err := s.daemon.Settings(s.ctx)
	if err != nil {
		return err
	}
	resp.Settings = settings
	return nil
}

func (s *service) SettingGet(req SettingGetRequest, resp *SettingGetResponse) error {
	resp.Key = req.Key
	value, err := s.daemon.Setting(s.ctx, req.Key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	resp.Value = value
	resp.Found = true
	return nil
}

func (s *service) SettingSave(req SettingSaveRequest, resp *SettingSaveResponse) error {
	if err := s.daemon.SaveSetting(s.ctx, req.Key, req.Value); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) RecordingList(req RecordingListRequest, resp *RecordingListResponse) error {
	statuses := make([]store.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		if parsed, ok := store.ParseStatus(raw); ok {
			statuses = append(statuses, parsed)
		}
	}
	recordings, err := s.daemon.ListRecordings(s.ctx, statuses...)
	if err != nil {
		return err
	}
	resp.Recordings = api.FromRecordings(recordings)
	return nil
}

func (s *service) RecordingGet(req RecordingGetRequest, resp *RecordingGetResponse) error {
	rec, err := s.daemon.GetRecording(s.ctx, req.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	dto := api.FromRecording(rec)
	resp.Recording = &dto
	return nil
}

func (s *service) RecordingAdd(req RecordingAddRequest, resp *RecordingAddResponse) error {
	rec, err := s.daemon.AddRecording(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.ID = rec.ID
	return nil
}

func (s *service) RecordingUpdateStatus(req RecordingUpdateStatusRequest, resp *RecordingUpdateStatusResponse) error {
	status, ok := store.ParseStatus(req.Status)
	if !ok {
		return fmt.Errorf("unknown status %q", req.Status)
	}
	if err := s.daemon.UpdateRecordingStatus(s.ctx, req.ID, status, req.ErrorMessage); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) RecordingRemove(req RecordingRemoveRequest, resp *RecordingRemoveResponse) error {
	if err := s.daemon.RemoveRecording(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) TranscribeStart(req TranscribeStartRequest, resp *TranscribeStartResponse) error {
	if req.RecordingID == "" {
		return errors.New("recording id required")
	}
	if err := s.daemon.StartTranscription(s.ctx, req.RecordingID, req.FilePath, req.Language); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) TranscribeCancel(req TranscribeCancelRequest, resp *TranscribeCancelResponse) error {
	if err := s.daemon.CancelTranscription(s.ctx, req.RecordingID); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) TranscribeStatus(req TranscribeStatusRequest, resp *TranscribeStatusResponse) error {
	status, errMessage, err := s.daemon.TranscriptionStatus(s.ctx, req.RecordingID)
	if err != nil {
		return err
	}
	resp.Status = status
	resp.Error = errMessage
	return nil
}

func (s *service) TranscribeProgress(req TranscribeProgressRequest, resp *TranscribeProgressResponse) error {
	resp.PercentComplete = s.daemon.TranscriptionProgress(req.RecordingID)
	return nil
}

func (s *service) TranscriptionGet(req TranscriptionGetRequest, resp *TranscriptionGetResponse) error {
	tr, err := s.daemon.GetTranscription(s.ctx, req.RecordingID)
	if err != nil {
		return err
	}
	if tr == nil {
		return nil
	}
	dto := api.FromTranscription(tr)
	resp.Transcription = &dto
	return nil
}

func (s *service) TranscriptionSave(req TranscriptionSaveRequest, resp *TranscriptionSaveResponse) error {
	if _, err := s.daemon.SaveTranscription(s.ctx, req.RecordingID, req.Content); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) WatchAdd(req WatchAddRequest, resp *WatchAddResponse) error {
	if err := s.daemon.WatchDirectory(s.ctx, req.Path); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) WatchRemove(req WatchRemoveRequest, resp *WatchRemoveResponse) error {
	if err := s.daemon.UnwatchDirectory(s.ctx, req.Path); err != nil {
		return err
	}
	resp.Success = true
	return nil
}

func (s *service) WatchList(_ WatchListRequest, resp *WatchListResponse) error {
	resp.Paths = s.daemon.WatchedDirectories()
	return nil
}

// Events serves the push-notification surface as a long poll: the call
// blocks until something newer than req.Since arrives or the wait window
// lapses.
func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	ctx := s.ctx
	if req.Wait {
		wait := time.Duration(req.WaitMillis) * time.Millisecond
		if wait <= 0 {
			wait = time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}
	evts, next, err := s.daemon.Events(ctx, req.Since, req.Limit, req.Wait)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	resp.Events = evts
	resp.Next = next
	return nil
}
