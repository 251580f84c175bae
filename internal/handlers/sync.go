package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"

	"github.com/m1z23r/nikode-sync/internal/dispatch"
	"github.com/m1z23r/nikode-sync/internal/hub"
	"github.com/m1z23r/nikode-sync/internal/models"
	"github.com/m1z23r/nikode-sync/internal/permissions"
	"github.com/m1z23r/nikode-sync/internal/services"
	"github.com/m1z23r/nikode-sync/pkg/dto"
)

const (
	syncPingInterval = 30 * time.Second
	syncWriteTimeout = 10 * time.Second
	syncReadTimeout  = 60 * time.Second
)

type SyncHandler struct {
	hub              HubInterface
	collections      CollectionServiceInterface
	documents        DocumentServiceInterface
	groups           GroupServiceInterface
	jwtService       *services.JWTService
	subscribeTimeout time.Duration
	backlog          int
}

func NewSyncHandler(
	hub HubInterface,
	collections CollectionServiceInterface,
	documents DocumentServiceInterface,
	groups GroupServiceInterface,
	jwtService *services.JWTService,
	subscribeTimeout time.Duration,
	backlog int,
) *SyncHandler {
	return &SyncHandler{
		hub:              hub,
		collections:      collections,
		documents:        documents,
		groups:           groups,
		jwtService:       jwtService,
		subscribeTimeout: subscribeTimeout,
		backlog:          backlog,
	}
}

func (h *SyncHandler) Connect(c *drift.Context) {
	// Extract and validate JWT before upgrading
	token := c.QueryParam("token")
	if token == "" {
		c.Unauthorized("token is required")
		return
	}

	claims, err := h.jwtService.ValidateAccessToken(token)
	if err != nil {
		c.Unauthorized("invalid token")
		return
	}

	groups, err := h.groups.GroupsOf(context.Background(), claims.UserID)
	if err != nil {
		log.Printf("Group lookup failed for %s: %v", claims.UserID, err)
		c.InternalServerError("failed to resolve user groups")
		return
	}

	// Upgrade to WebSocket
	conn, err := websocket.Upgrade(c)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := &hub.Client{
		ID:          clientID,
		UserID:      claims.UserID,
		Groups:      groups,
		Collections: make(map[string]bool),
		Send:        make(chan []byte, 256),
	}

	h.hub.Register(client)
	dispatcher := dispatch.New(h.backlog)

	idleTimer := h.startIdleTimer(clientID, func() {
		_ = conn.Close(websocket.CloseNormalClosure, "no subscriptions")
	})

	done := make(chan struct{})
	writeExit := make(chan struct{})

	// Write pump. writeExit unblocks any handler waiting to queue a
	// reply once the writer is gone; its conn.Close also fails the read
	// pump so teardown completes.
	go func() {
		ticker := time.NewTicker(syncPingInterval)
		defer ticker.Stop()
		defer func() {
			close(writeExit)
			if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
				log.Printf("WebSocket close error: %v", err)
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(syncWriteTimeout))
				if err := conn.WriteText(string(msg)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read pump (blocks until disconnect)
	func() {
		defer func() {
			close(done)
			idleTimer.Stop()
			dispatcher.Close()
			h.hub.Unregister(client)
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(syncReadTimeout))
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			if msgType != websocket.TextMessage {
				continue
			}

			var msg dto.ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("Dropping unparseable frame from %s: %v", clientID, err)
				continue
			}
			if err := msg.Validate(); err != nil {
				log.Printf("Dropping invalid frame from %s: %v", clientID, err)
				continue
			}

			// Requests from one socket are handled strictly in order;
			// the dispatcher never starts a message while the previous
			// one is still in flight.
			queued := msg
			if err := dispatcher.Push(func() { h.handleMessage(client, &queued, writeExit) }); err != nil {
				return
			}
		}
	}()
}

// startIdleTimer arms the one-shot idle-subscription check: when the
// window passes and the client still has no subscriptions, the
// connection is closed.
func (h *SyncHandler) startIdleTimer(clientID string, closeConn func()) *time.Timer {
	return time.AfterFunc(h.subscribeTimeout, func() {
		if !h.hub.IsSubscribed(clientID) {
			log.Printf("Closing idle connection %s: no subscriptions", clientID)
			closeConn()
		}
	})
}

func (h *SyncHandler) handleMessage(client *hub.Client, msg *dto.ClientMessage, quit <-chan struct{}) {
	switch msg.Kind {
	case dto.KindSync:
		h.handleSync(client, msg, quit)
	case dto.KindChange:
		h.handleChange(client, msg, quit)
	}
}

func (h *SyncHandler) handleSync(client *hub.Client, msg *dto.ClientMessage, quit <-chan struct{}) {
	result, err := h.collections.Sync(context.Background(), msg.Col, msg.Colrev)
	if err != nil {
		h.send(client, dto.SyncErrorMessage{
			Kind: dto.KindSyncError,
			Col:  msg.Col,
			Code: syncErrorCode(err),
		}, quit)
		return
	}

	for _, doc := range result.Documents {
		delivered := h.send(client, dto.DocMessage{
			Kind:      dto.KindDoc,
			Col:       msg.Col,
			ID:        doc.ID,
			Data:      dto.EncodeDocData(doc.Data),
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		}, quit)
		if !delivered {
			return
		}
	}

	if !h.send(client, dto.SyncCompleteMessage{
		Kind:   dto.KindSyncComplete,
		Col:    msg.Col,
		Colrev: result.Colrev,
	}, quit) {
		return
	}

	h.hub.Subscribe(client.ID, msg.Col)
}

func (h *SyncHandler) handleChange(client *hub.Client, msg *dto.ClientMessage, quit <-chan struct{}) {
	subject := permissions.Subject{ID: client.UserID, Groups: client.Groups}
	ctx := context.Background()

	var (
		doc *models.Document
		err error
	)
	switch msg.Op {
	case dto.OpCreate:
		var data []byte
		data, err = msg.DecodeCreateData()
		if err == nil {
			doc, err = h.documents.Create(ctx, msg.Col, msg.ID, data)
		}
	case dto.OpModify:
		var changes [][]byte
		changes, err = msg.DecodeChanges()
		if err == nil {
			err = h.documents.Authorize(ctx, msg.ID, subject, permissions.Write)
		}
		if err == nil {
			doc, err = h.documents.Update(ctx, msg.ID, changes)
		}
	case dto.OpDelete:
		err = h.documents.Authorize(ctx, msg.ID, subject, permissions.Write)
		if err == nil {
			doc, err = h.documents.Update(ctx, msg.ID, nil)
		}
	}

	if err != nil {
		h.send(client, dto.ChangeErrorMessage{
			Kind:     dto.KindError,
			ID:       msg.ID,
			ChangeID: msg.ChangeID,
			Code:     changeErrorCode(err),
		}, quit)
		return
	}

	broadcast := dto.ChangeBroadcast{
		Kind:      dto.KindChange,
		Col:       msg.Col,
		ID:        msg.ID,
		ChangeID:  msg.ChangeID,
		Op:        msg.Op,
		Colrev:    doc.Colrev,
		UpdatedAt: doc.UpdatedAt,
	}
	// The broadcast echoes the request's data field verbatim; Validate
	// and the decode above already proved it well-formed.
	switch msg.Op {
	case dto.OpCreate:
		broadcast.CreatedAt = &doc.CreatedAt
		broadcast.Data = msg.Data
	case dto.OpModify:
		broadcast.Data = msg.Data
	}

	h.hub.Broadcast(msg.Col, broadcast)
}

// send queues a requester-scoped reply for this connection's write pump.
// Protocol replies must never be dropped, so a full buffer blocks the
// dispatcher worker (back-pressuring this one connection) until the pump
// drains it or quit reports the writer gone. Reports whether the message
// was queued.
func (h *SyncHandler) send(client *hub.Client, payload any, quit <-chan struct{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal message for %s: %v", client.ID, err)
		return false
	}
	select {
	case client.Send <- data:
		return true
	case <-quit:
		return false
	}
}

func syncErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrCollectionNotFound):
		return dto.CodeNotFound
	case errors.Is(err, services.ErrColrevOutOfRange):
		return dto.CodeInvalidRequest
	default:
		return dto.CodeInternal
	}
}

func changeErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound):
		return dto.CodeNotFound
	case errors.Is(err, services.ErrAccessDenied):
		return dto.CodeAccessDenied
	case errors.Is(err, services.ErrDocumentExists),
		errors.Is(err, services.ErrCollectionNotFound),
		errors.Is(err, services.ErrDocumentDeleted),
		errors.Is(err, services.ErrApplyFailed),
		errors.Is(err, dto.ErrInvalidMessage):
		return dto.CodeInvalidRequest
	default:
		return dto.CodeInternal
	}
}
