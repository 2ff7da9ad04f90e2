package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"readova/models"
)

// NotificationChannel 多实例同步新书通知的Redis频道
const NotificationChannel = "readova:notifications"

// 消息类型
const (
	TypeBookAdded = "book_added"
	TypePing      = "ping"
	TypePong      = "pong"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBufferSize = 256
)

// 升级器 - 将HTTP连接升级为WebSocket连接
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 通知是公开数据，不校验origin
		return true
	},
}

// WSMessage WebSocket消息结构
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// relayMessage Redis中转的消息，Origin用于过滤本实例发出的消息
type relayMessage struct {
	Origin       string              `json:"origin"`
	Notification models.Notification `json:"notification"`
}

// Client WebSocket客户端
type Client struct {
	hub        *Hub
	connection *websocket.Conn
	send       chan *WSMessage
}

// Hub 新书通知广播中心
type Hub struct {
	clients   map[*Client]struct{}
	mu        sync.RWMutex
	broadcast chan *WSMessage

	redis    *redis.Client
	pubsub   *redis.PubSub
	instance string
	logger   *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewHub 创建通知中心，rdb 可以为nil
func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan *WSMessage, 1000),
		redis:     rdb,
		instance:  uuid.NewString(),
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start 启动广播worker和Redis订阅
func (h *Hub) Start(ctx context.Context) error {
	if h.redis != nil {
		pubsub := h.redis.Subscribe(ctx, NotificationChannel)
		// 等待订阅确认，保证启动后发布的消息不会丢失
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return err
		}
		h.pubsub = pubsub

		h.wg.Add(1)
		go h.subscribeToRedis()
	}

	h.wg.Add(1)
	go h.broadcastWorker()

	h.logger.Info("notification hub started", zap.Bool("redis", h.redis != nil))
	return nil
}

// BookAdded 推送新书通知（实现 services.Notifier）
func (h *Hub) BookAdded(n models.Notification) {
	h.enqueue(n)

	if h.redis == nil {
		return
	}

	data, err := json.Marshal(relayMessage{Origin: h.instance, Notification: n})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.redis.Publish(ctx, NotificationChannel, data).Err(); err != nil {
		h.logger.Warn("failed to publish notification", zap.Uint("book_id", n.BookID), zap.Error(err))
	}
}

// enqueue 放入本地广播队列，队列满时丢弃
func (h *Hub) enqueue(n models.Notification) {
	message := &WSMessage{
		Type:      TypeBookAdded,
		Data:      n,
		Timestamp: time.Now().Unix(),
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue is full, dropping notification", zap.Uint("book_id", n.BookID))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection 处理WebSocket连接
func (h *Hub) HandleConnection(c *gin.Context) {
	// 升级HTTP连接为WebSocket连接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		hub:        h,
		connection: conn,
		send:       make(chan *WSMessage, sendBufferSize),
	}

	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		_ = conn.Close()
		return
	default:
	}
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("notification client connected", zap.String("remote", conn.RemoteAddr().String()))

	// 启动读写goroutine
	go client.writePump()
	go client.readPump()
}

// removeClient 移除客户端并关闭发送队列
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// broadcastWorker 向所有客户端广播
func (h *Hub) broadcastWorker() {
	defer h.wg.Done()

	for {
		select {
		case <-h.done:
			return
		case message := <-h.broadcast:
			var slow []*Client

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			// 发送队列满了，断开连接
			for _, client := range slow {
				h.logger.Debug("client send queue is full, closing connection")
				h.removeClient(client)
			}
		}
	}
}

// subscribeToRedis 订阅Redis频道（多服务器同步）
func (h *Hub) subscribeToRedis() {
	defer h.wg.Done()

	ch := h.pubsub.Channel()
	for {
		select {
		case <-h.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var relay relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &relay); err != nil {
				h.logger.Debug("invalid relayed notification", zap.Error(err))
				continue
			}
			if relay.Origin == h.instance {
				continue
			}
			h.enqueue(relay.Notification)
		}
	}
}

// Close 关闭通知中心
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		if h.pubsub != nil {
			_ = h.pubsub.Close()
		}

		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.mu.Unlock()

		h.wg.Wait()
	})
}

// readPump 读取客户端消息，只处理心跳
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		_ = c.connection.Close()
	}()

	c.connection.SetReadLimit(maxMessageSize)
	_ = c.connection.SetReadDeadline(time.Now().Add(pongWait))
	c.connection.SetPongHandler(func(string) error {
		return c.connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var message WSMessage
		if err := json.Unmarshal(raw, &message); err != nil {
			continue
		}
		if message.Type == TypePing {
			c.hub.mu.RLock()
			if _, ok := c.hub.clients[c]; ok {
				select {
				case c.send <- &WSMessage{Type: TypePong, Timestamp: time.Now().Unix()}:
				default:
				}
			}
			c.hub.mu.RUnlock()
		}
	}
}

// writePump 向WebSocket连接写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.connection.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道关闭
				_ = c.connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.connection.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			// 发送心跳
			_ = c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
