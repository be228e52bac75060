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
	"strings"
	"sync"

	"focusd/internal/daemon"
	"focusd/internal/logging"
	"focusd/internal/session"
	"focusd/internal/store"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown is
// invoked when a client requests daemon shutdown; it should cancel the
// daemon's root context.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
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
	srv := &service{daemon: d, shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
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
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
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
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.DBPath = status.DBPath
	resp.LockFilePath = status.LockFilePath
	resp.LogPath = status.LogPath
	resp.Session = convertSnapshot(status.Session)
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.log().Info("daemon shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown_requested"))
	if s.shutdown != nil {
		s.shutdown()
	}
	resp.Stopping = true
	return nil
}

func (s *service) SessionStart(req SessionStartRequest, resp *SessionStartResponse) error {
	s.log().Debug("session start requested",
		logging.Bool("webcam", req.Webcam),
		logging.Bool("screen", req.Screen))

	var goal *store.Goal
	if description := strings.TrimSpace(req.GoalDescription); description != "" {
		goal = &store.Goal{
			Description:    description,
			TargetDuration: req.GoalTargetDuration,
		}
	}

	id, err := s.daemon.StartSession(s.ctx, session.StartOptions{
		Webcam: req.Webcam,
		Screen: req.Screen,
		Goal:   goal,
	})
	if err != nil {
		return err
	}
	resp.SessionID = id
	return nil
}

func (s *service) SessionEnd(_ SessionEndRequest, resp *SessionEndResponse) error {
	s.log().Debug("session end requested")
	id, err := s.daemon.EndSession(s.ctx)
	if err != nil {
		return err
	}
	resp.SessionID = id
	return nil
}

func (s *service) SessionStatus(_ SessionStatusRequest, resp *SessionStatusResponse) error {
	resp.Session = convertSnapshot(s.daemon.SessionStatus())
	return nil
}

func (s *service) SessionLog(_ SessionLogRequest, resp *SessionLogResponse) error {
	resp.Entries = convertEntries(s.daemon.SessionLog())
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	sessions, err := s.daemon.ListSessions(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Sessions = make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		if sess == nil {
			continue
		}
		resp.Sessions = append(resp.Sessions, convertSession(sess))
	}
	return nil
}

func (s *service) HistoryShow(req HistoryShowRequest, resp *HistoryShowResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return errors.New("history show requires a session id")
	}
	sess, err := s.daemon.GetSession(s.ctx, id)
	if err != nil {
		return err
	}
	resp.Session = convertSession(sess)
	return nil
}

func (s *service) HistoryDelete(req HistoryDeleteRequest, resp *HistoryDeleteResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return errors.New("history delete requires a session id")
	}
	s.log().Debug("history delete requested", logging.String(logging.FieldSessionID, id))
	if err := s.daemon.DeleteSession(s.ctx, id); err != nil {
		return err
	}
	resp.Deleted = true
	s.log().Info("session deleted",
		logging.String(logging.FieldSessionID, id),
		logging.String(logging.FieldEventType, "session_deleted"))
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
