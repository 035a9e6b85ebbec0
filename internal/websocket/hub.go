package websocket

import (
	"sync"

	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/internal/models"
	"github.com/gegege357/Project-Based-Learning-Attack-Defense-CTF/pkg/logger"
	"go.uber.org/zap"
)

// Hub WebSocket 연결 관리 및 브로드캐스트
type Hub struct {
	// 팀별 연결 저장 (teamName -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	// 브로드캐스트 채널
	broadcast chan *Message

	// 등록/해제 채널
	register   chan *Client
	unregister chan *Client

	logger *zap.Logger
}

// Message WebSocket 메시지
type Message struct {
	Team    string      `json:"-"`       // 수신 팀 (빈 문자열이면 전체 브로드캐스트)
	Type    string      `json:"type"`    // 메시지 타입
	Payload interface{} `json:"payload"` // 메시지 내용
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.L("websocket"),
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// registerClient 클라이언트 등록
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 같은 팀의 기존 연결이 있으면 닫기
	if oldClient, exists := h.clients[client.team]; exists {
		close(oldClient.send)
		h.logger.Info("Replaced existing WebSocket connection",
			zap.String("team", client.team))
	}

	h.clients[client.team] = client
	h.logger.Info("WebSocket client registered",
		zap.String("team", client.team),
		zap.Int("totalClients", len(h.clients)))
}

// unregisterClient 클라이언트 해제
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[client.team]; exists && current == client {
		delete(h.clients, client.team)
		close(client.send)
		h.logger.Info("WebSocket client unregistered",
			zap.String("team", client.team),
			zap.Int("totalClients", len(h.clients)))
	}
}

// broadcastMessage 메시지 브로드캐스트
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if message.Team == "" {
		// 전체 브로드캐스트
		for _, client := range h.clients {
			select {
			case client.send <- message:
			default:
				// 채널이 가득 찬 경우 연결 해제
				h.logger.Warn("Client send channel full, unregistering",
					zap.String("team", client.team))
				go func(c *Client) {
					h.unregister <- c
				}(client)
			}
		}
	} else {
		// 특정 팀에게만 전송
		if client, exists := h.clients[message.Team]; exists {
			select {
			case client.send <- message:
			default:
				h.logger.Warn("Client send channel full",
					zap.String("team", message.Team))
			}
		}
	}
}

// SendToTeam 특정 팀에게 메시지 전송
func (h *Hub) SendToTeam(team string, msgType string, payload interface{}) {
	h.broadcast <- &Message{
		Team:    team,
		Type:    msgType,
		Payload: payload,
	}
}

// Broadcast 모든 팀에게 메시지 전송
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	h.broadcast <- &Message{
		Team:    "",
		Type:    msgType,
		Payload: payload,
	}
}

// NotifyFlagCapture 공격당한 플래그의 소유 팀에게 알림 (service.Notifier 구현).
// 허브 채널에 넣기만 하고 바로 반환하므로 제출 응답을 막지 않는다.
func (h *Hub) NotifyFlagCapture(owner string, notification models.FlagCaptureNotification) {
	h.SendToTeam(owner, notification.Type, notification)
}

// BroadcastChat 채팅 메시지 전체 전파 (service.ChatBroadcaster 구현)
func (h *Hub) BroadcastChat(message *models.ChatMessage) {
	h.Broadcast("chat", message)
}
