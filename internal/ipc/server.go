package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"class360/internal/daemon"
	"class360/internal/logging"
	"class360/internal/logs"
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
	if err := rpcServer.RegisterName("Class360", srv); err != nil {
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
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
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
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
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
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before restarting"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via ipc",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via ipc",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status()
	return nil
}

func (s *service) Enqueue(req EnqueueRequest, resp *EnqueueResponse) error {
	id, err := s.daemon.Enqueue(s.ctx, req.Job)
	if err != nil {
		return err
	}
	resp.JobID = id
	s.logger.Info("job enqueued via ipc",
		logging.String(logging.FieldEventType, "job_enqueue"),
		logging.String(logging.FieldJobID, id),
		logging.String(logging.FieldEntityID, req.Job.EntityID))
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	resp.Summary = s.daemon.QueueSummary()
	return nil
}

func (s *service) QueueClear(_ QueueClearRequest, resp *QueueClearResponse) error {
	resp.Removed = s.daemon.ClearQueue()
	s.logger.Info("queue cleared",
		logging.String(logging.FieldEventType, "queue_clear"),
		logging.Int("removed_count", resp.Removed))
	return nil
}

func (s *service) RecordingStart(req RecordingStartRequest, resp *RecordingStartResponse) error {
	info, err := s.daemon.StartRecording(s.ctx, req.ClassroomID, req.Source)
	if err != nil {
		return err
	}
	resp.Session = *info
	return nil
}

func (s *service) RecordingStop(req RecordingStopRequest, resp *RecordingStopResponse) error {
	result, err := s.daemon.StopRecording(s.ctx, req.ClassroomID)
	if err != nil {
		return err
	}
	resp.Result = *result
	return nil
}

func (s *service) RecordingStatus(req RecordingStatusRequest, resp *RecordingStatusResponse) error {
	resp.Status = s.daemon.RecordingStatus(req.ClassroomID)
	return nil
}

func (s *service) Split(req SplitRequest, resp *SplitResponse) error {
	segments, err := s.daemon.Split(s.ctx, req.Split)
	if err != nil {
		return err
	}
	resp.Segments = segments
	s.logger.Info("recording split via ipc",
		logging.String(logging.FieldEventType, "recording_split"),
		logging.String(logging.FieldClassroom, req.Split.ClassroomID),
		logging.Int("segment_count", len(segments)))
	return nil
}

func (s *service) VideoGet(req VideoGetRequest, resp *VideoGetResponse) error {
	video, err := s.daemon.Entity(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Video = video
	return nil
}

func (s *service) ProgressGet(req ProgressGetRequest, resp *ProgressGetResponse) error {
	snapshot, ok := s.daemon.LatestSnapshot(req.EntityID)
	resp.Found = ok
	resp.Snapshot = snapshot
	return nil
}

func (s *service) ProgressList(_ ProgressListRequest, resp *ProgressListResponse) error {
	resp.Snapshots = s.daemon.ActiveSnapshots()
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	result, err := s.daemon.TailLogs(s.ctx, logs.Options{
		Offset: req.Offset,
		Limit:  req.Limit,
		Wait:   time.Duration(req.WaitMillis) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}
