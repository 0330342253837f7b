// internal/service/link_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/linkuri"
	"link-service/internal/model"
	"link-service/internal/protocol"
	"link-service/internal/repository"
	"link-service/internal/utils"
)

var (
	ErrLinkOpen       = errors.New("link is open")
	ErrLinkNotOpen    = errors.New("link is not open")
	ErrInvalidRequest = errors.New("invalid request")
	ErrTransport      = errors.New("transport failure")
	ErrLinkStreaming  = errors.New("link already has a stream attached")
)

// protocolFactory builds a transport for a parsed descriptor
type protocolFactory func(d linkuri.Descriptor, defaults config.LinkConfig, logger *zap.Logger) (protocol.LinkProtocol, error)

type linkSession struct {
	link      *model.Link
	proto     protocol.LinkProtocol
	openedAt  time.Time
	streaming bool
}

// LinkService handles link profile management and open transports
type LinkService struct {
	linkRepo    repository.LinkRepository
	config      *config.Config
	logger      *utils.ServiceLogger
	newProtocol protocolFactory

	mu       sync.RWMutex
	sessions map[uuid.UUID]*linkSession
}

// NewLinkService creates a new link service instance
func NewLinkService(
	linkRepo repository.LinkRepository,
	config *config.Config,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		linkRepo:    linkRepo,
		config:      config,
		logger:      utils.NewServiceLogger(logger, "link-service"),
		newProtocol: protocol.CreateProtocol,
		sessions:    make(map[uuid.UUID]*linkSession),
	}
}

// ParseURI parses a connection URI and resolves its effective endpoint.
// A rejected URI returns the *linkuri.ParseError unchanged.
func (ls *LinkService) ParseURI(uri string) (linkuri.Descriptor, protocol.Endpoint, error) {
	desc, err := linkuri.Parse(uri)
	if err != nil {
		utils.NewLinkLogger(ls.logger.Logger, "", uri).LogParseRejected(err)
		return linkuri.Descriptor{}, protocol.Endpoint{}, err
	}

	ep, err := protocol.ResolveEndpoint(desc, ls.config.Link)
	if err != nil {
		return linkuri.Descriptor{}, protocol.Endpoint{}, err
	}
	return desc, ep, nil
}

// RegisterLink validates and stores a new named link
func (ls *LinkService) RegisterLink(ctx context.Context, req *RegisterLinkRequest) (*model.Link, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}

	if _, _, err := ls.ParseURI(req.URI); err != nil {
		return nil, err
	}

	link := &model.Link{
		Name:        name,
		URI:         req.URI,
		Description: req.Description,
		Metadata:    model.JSONObject(req.Metadata),
	}

	if err := ls.linkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	ls.logger.Info("Link registered",
		zap.String("link_id", link.ID.String()),
		zap.String("name", link.Name),
		zap.String("uri", link.URI),
	)
	return link, nil
}

// GetLink retrieves a link by id or, failing that, by name
func (ls *LinkService) GetLink(ctx context.Context, ref string) (*model.Link, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return ls.linkRepo.GetByID(ctx, id)
	}
	return ls.linkRepo.GetByName(ctx, ref)
}

// ListLinks retrieves links with filtering
func (ls *LinkService) ListLinks(ctx context.Context, filter *repository.LinkFilter) ([]*model.Link, *PaginationResult, error) {
	if filter == nil {
		filter = &repository.LinkFilter{}
	}
	filter.Normalize()

	links, total, err := ls.linkRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list links: %w", err)
	}

	pagination := &PaginationResult{
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: (total + filter.PerPage - 1) / filter.PerPage,
	}
	return links, pagination, nil
}

// UpdateLink applies a partial update. A new URI is validated before it is
// stored and cannot replace the URI of an open link.
func (ls *LinkService) UpdateLink(ctx context.Context, ref string, req *UpdateLinkRequest) (*model.Link, error) {
	link, err := ls.GetLink(ctx, ref)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidRequest)
		}
		link.Name = name
	}

	if req.URI != nil && *req.URI != link.URI {
		if ls.isOpen(link.ID) {
			return nil, fmt.Errorf("%w: close %s before changing its uri", ErrLinkOpen, link.Name)
		}
		if _, _, err := ls.ParseURI(*req.URI); err != nil {
			return nil, err
		}
		link.URI = *req.URI
	}

	if req.Description != nil {
		link.Description = req.Description
	}
	if req.Metadata != nil {
		link.Metadata = model.JSONObject(req.Metadata)
	}

	if err := ls.linkRepo.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	ls.logger.Info("Link updated",
		zap.String("link_id", link.ID.String()),
		zap.String("name", link.Name),
	)
	return link, nil
}

// DeleteLink removes a closed link
func (ls *LinkService) DeleteLink(ctx context.Context, ref string) error {
	link, err := ls.GetLink(ctx, ref)
	if err != nil {
		return err
	}

	if ls.isOpen(link.ID) {
		return fmt.Errorf("%w: cannot delete %s, close it first", ErrLinkOpen, link.Name)
	}

	if err := ls.linkRepo.Delete(ctx, link.ID); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	ls.logger.Info("Link deleted",
		zap.String("link_id", link.ID.String()),
		zap.String("name", link.Name),
	)
	return nil
}

// OpenLink parses the stored URI and opens its transport
func (ls *LinkService) OpenLink(ctx context.Context, ref string) (*LinkStatus, error) {
	link, err := ls.GetLink(ctx, ref)
	if err != nil {
		return nil, err
	}

	if ls.isOpen(link.ID) {
		return nil, fmt.Errorf("%w: %s", ErrLinkOpen, link.Name)
	}

	linkLogger := utils.NewLinkLogger(ls.logger.Logger, link.Name, link.URI)

	desc, err := linkuri.Parse(link.URI)
	if err != nil {
		linkLogger.LogParseRejected(err)
		return nil, err
	}

	proto, err := ls.newProtocol(desc, ls.config.Link, linkLogger.Logger)
	if err != nil {
		linkLogger.LogConnection("create", "", err)
		return nil, fmt.Errorf("%w: failed to create transport: %w", ErrTransport, err)
	}

	openCtx := ctx
	if ls.config.Link.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		openCtx, cancel = context.WithTimeout(ctx, ls.config.Link.ConnectTimeout)
		defer cancel()
	}

	endpoint := proto.Endpoint().String()
	if err := proto.Open(openCtx); err != nil {
		linkLogger.LogConnection("open", endpoint, err)
		return nil, fmt.Errorf("%w: failed to open link: %w", ErrTransport, err)
	}

	session := &linkSession{link: link, proto: proto, openedAt: time.Now().UTC()}

	ls.mu.Lock()
	if _, exists := ls.sessions[link.ID]; exists {
		ls.mu.Unlock()
		proto.Close()
		return nil, fmt.Errorf("%w: %s", ErrLinkOpen, link.Name)
	}
	ls.sessions[link.ID] = session
	ls.mu.Unlock()

	linkLogger.LogConnection("open", endpoint, nil)
	return session.status(), nil
}

// CloseLink closes an open link's transport
func (ls *LinkService) CloseLink(ctx context.Context, ref string) error {
	link, err := ls.GetLink(ctx, ref)
	if err != nil {
		return err
	}

	ls.mu.Lock()
	session, ok := ls.sessions[link.ID]
	delete(ls.sessions, link.ID)
	ls.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrLinkNotOpen, link.Name)
	}

	linkLogger := utils.NewLinkLogger(ls.logger.Logger, link.Name, link.URI)
	err = session.proto.Close()
	linkLogger.LogConnection("close", session.proto.Endpoint().String(), err)
	if err != nil {
		return fmt.Errorf("%w: failed to close link: %w", ErrTransport, err)
	}
	return nil
}

// LinkStatus reports whether a link is open, where it points and its traffic
func (ls *LinkService) LinkStatus(ctx context.Context, ref string) (*LinkStatus, error) {
	link, err := ls.GetLink(ctx, ref)
	if err != nil {
		return nil, err
	}

	ls.mu.RLock()
	session, ok := ls.sessions[link.ID]
	ls.mu.RUnlock()
	if ok {
		return session.status(), nil
	}

	_, ep, err := ls.ParseURI(link.URI)
	if err != nil {
		return nil, err
	}

	return &LinkStatus{
		LinkID:   link.ID,
		Name:     link.Name,
		URI:      link.URI,
		State:    model.LinkStateClosed,
		Endpoint: ep,
	}, nil
}

// AttachStream hands the transport of an open link to a single reader and
// writer. The caller must Close the stream to release the link for the
// next one.
func (ls *LinkService) AttachStream(ctx context.Context, ref string) (*LinkStream, error) {
	link, err := ls.GetLink(ctx, ref)
	if err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	session, ok := ls.sessions[link.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLinkNotOpen, link.Name)
	}
	if session.streaming {
		return nil, fmt.Errorf("%w: %s", ErrLinkStreaming, link.Name)
	}
	session.streaming = true

	bufferSize := ls.config.Link.BufferSize
	if bufferSize <= 0 {
		bufferSize = config.DefaultLinkConfig().BufferSize
	}

	ls.logger.Info("Link stream attached",
		zap.String("link_id", link.ID.String()),
		zap.String("name", link.Name),
	)
	return &LinkStream{
		Link:       session.link,
		proto:      session.proto,
		bufferSize: bufferSize,
		release: func() {
			ls.mu.Lock()
			session.streaming = false
			ls.mu.Unlock()
		},
	}, nil
}

// OpenLinkCount returns the number of open links
func (ls *LinkService) OpenLinkCount() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.sessions)
}

// CloseAll closes every open link. Used on shutdown.
func (ls *LinkService) CloseAll() error {
	ls.mu.Lock()
	sessions := ls.sessions
	ls.sessions = make(map[uuid.UUID]*linkSession)
	ls.mu.Unlock()

	var errs []error
	for _, session := range sessions {
		linkLogger := utils.NewLinkLogger(ls.logger.Logger, session.link.Name, session.link.URI)
		err := session.proto.Close()
		linkLogger.LogConnection("close", session.proto.Endpoint().String(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", session.link.Name, err))
		}
	}

	if len(sessions) > 0 {
		ls.logger.Info("Closed open links", zap.Int("count", len(sessions)))
	}
	return errors.Join(errs...)
}

func (ls *LinkService) isOpen(id uuid.UUID) bool {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	_, ok := ls.sessions[id]
	return ok
}

func (s *linkSession) status() *LinkStatus {
	stats := s.proto.Stats()
	openedAt := s.openedAt
	return &LinkStatus{
		LinkID:   s.link.ID,
		Name:     s.link.Name,
		URI:      s.link.URI,
		State:    model.LinkStateOpen,
		Endpoint: s.proto.Endpoint(),
		OpenedAt: &openedAt,
		Stats:    &stats,
	}
}

// LinkStream moves raw bytes through an open link
type LinkStream struct {
	Link *model.Link

	proto      protocol.LinkProtocol
	bufferSize int
	release    func()
	once       sync.Once
}

// Read returns the next chunk received on the link, at most BufferSize bytes
func (s *LinkStream) Read(ctx context.Context) ([]byte, error) {
	return s.proto.Read(ctx, s.bufferSize)
}

// Write sends data out on the link
func (s *LinkStream) Write(ctx context.Context, data []byte) error {
	return s.proto.Write(ctx, data)
}

// Close detaches the stream. The link itself stays open.
func (s *LinkStream) Close() {
	s.once.Do(s.release)
}

// Data Transfer Objects

// RegisterLinkRequest represents link registration request
type RegisterLinkRequest struct {
	Name        string                 `json:"name"`
	URI         string                 `json:"uri"`
	Description *string                `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateLinkRequest represents a partial link update. Nil fields are left as is.
type UpdateLinkRequest struct {
	Name        *string                `json:"name,omitempty"`
	URI         *string                `json:"uri,omitempty"`
	Description *string                `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// PaginationResult represents pagination information
type PaginationResult struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// LinkStatus represents the runtime view of a link
type LinkStatus struct {
	LinkID   uuid.UUID               `json:"link_id"`
	Name     string                  `json:"name"`
	URI      string                  `json:"uri"`
	State    model.LinkState         `json:"state"`
	Endpoint protocol.Endpoint       `json:"endpoint"`
	OpenedAt *time.Time              `json:"opened_at,omitempty"`
	Stats    *protocol.ProtocolStats `json:"stats,omitempty"`
}
