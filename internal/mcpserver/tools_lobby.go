package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"bingo-live/internal/app/public"
)

func (s *Server) registerLobbyTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_games",
			mcp.WithDescription("List bingo games with status, stake and player counts"),
		),
		s.handleListGames,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_game",
			mcp.WithDescription("Get one game with called numbers and participants"),
			mcp.WithString("game_id", mcp.Required(), mcp.Description("Game id")),
		),
		s.handleGetGame,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_game",
			mcp.WithDescription("Create a new game in the lobby"),
			mcp.WithNumber("stake_cents", mcp.Required(), mcp.Description("Stake per player in cents, > 0")),
			mcp.WithNumber("capacity", mcp.Required(), mcp.Description("Max players, 2 to 20")),
		),
		s.handleCreateGame,
	)
}

func (s *Server) handleListGames(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.publicSvc.Games(ctx)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := request.RequireString("game_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.publicSvc.Game(ctx, gameID)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stake := request.GetInt("stake_cents", 0)
	capacity := request.GetInt("capacity", 0)
	resp, err := s.publicSvc.CreateGame(ctx, public.CreateGameRequest{
		StakeCents: int64(stake),
		Capacity:   capacity,
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}
