package handlers

import (
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	dashws "github.com/renren-chavez/MatchUpBack/internal/websocket"
	"github.com/renren-chavez/MatchUpBack/pkg/utils"
)

// DashboardHandler upgrades a coach's dashboard connection onto the live
// booking feed.
type DashboardHandler struct {
	hub       *dashws.Hub
	profiles  coachProfileResolver
	jwtSecret string
}

func NewDashboardHandler(hub *dashws.Hub, profiles coachProfileResolver, jwtSecret string) *DashboardHandler {
	return &DashboardHandler{hub: hub, profiles: profiles, jwtSecret: jwtSecret}
}

func (h *DashboardHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	if claims.Role != "coach" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	// The feed is keyed by coach profile id, which is what booking events
	// carry.
	profile, err := h.profiles.GetByUserID(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach profile not found"})
	}

	c.Locals("coach_id", strconv.FormatInt(profile.ID, 10))
	return c.Next()
}

func (h *DashboardHandler) HandleWebSocket(conn *websocket.Conn) {
	coachID, _ := conn.Locals("coach_id").(string)
	client := dashws.NewClient(h.hub, conn, coachID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *DashboardHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
