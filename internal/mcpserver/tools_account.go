package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"bingo-live/internal/app/public"
)

func (s *Server) registerAccountTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_user",
			mcp.WithDescription("Register a user account"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		),
		s.handleCreateUser,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_user",
			mcp.WithDescription("Get a user with balance"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User id")),
		),
		s.handleGetUser,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"deposit",
			mcp.WithDescription("Credit a user balance"),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User id")),
			mcp.WithNumber("amount_cents", mcp.Required(), mcp.Description("Amount in cents, > 0")),
			mcp.WithString("reference", mcp.Description("Optional external reference")),
		),
		s.handleDeposit,
	)
}

func (s *Server) handleCreateUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.publicSvc.CreateUser(ctx, public.CreateUserRequest{Name: name})
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.publicSvc.User(ctx, userID)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleDeposit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	amount := request.GetInt("amount_cents", 0)
	resp, svcErr := s.publicSvc.Deposit(ctx, userID, public.DepositRequest{
		AmountCents: int64(amount),
		Reference:   request.GetString("reference", ""),
	})
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}
