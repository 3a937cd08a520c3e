package mcpbridge

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mbocsi/webostv"
)

// Client registers a webostv.TV's control surface as MCP tools on a
// Server. One Client binds to one already-paired TV; controlling
// multiple TVs means running one Client (and one Server) per TV.
type Client struct {
	server *Server
	tv     *webostv.TV
}

// NewClient registers every tool and returns the bound Client.
func NewClient(server *Server, tv *webostv.TV) *Client {
	c := &Client{server: server, tv: tv}
	c.registerPowerTools()
	c.registerMediaTools()
	c.registerChannelTools()
	c.registerAppTools()
	return c
}

func (c *Client) registerPowerTools() {
	powerOffTool := mcp.NewTool("tv_power_off",
		mcp.WithDescription("Turn the TV off"),
	)
	c.server.mcp.AddTool(powerOffTool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := c.tv.System.PowerOff(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText("TV powering off"), nil
	})

	notifyTool := mcp.NewTool("tv_notify",
		mcp.WithDescription("Show an on-screen toast notification"),
		mcp.WithString("message", mcp.Required(), mcp.Description("Notification text")),
	)
	c.server.mcp.AddTool(notifyTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError("message is required"), err
		}
		if err := c.tv.System.Notify(ctx, message); err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText("notification sent"), nil
	})
}

func (c *Client) registerMediaTools() {
	setVolumeTool := mcp.NewTool("tv_set_volume",
		mcp.WithDescription("Set the TV's speaker volume"),
		mcp.WithNumber("volume", mcp.Required(), mcp.Description("Volume level, 0-100")),
	)
	c.server.mcp.AddTool(setVolumeTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		volume := req.GetInt("volume", -1)
		if volume < 0 {
			return mcp.NewToolResultError("volume is required"), fmt.Errorf("volume is required")
		}
		if err := c.tv.Media.SetVolume(ctx, volume); err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText("volume set"), nil
	})

	getVolumeTool := mcp.NewTool("tv_get_volume",
		mcp.WithDescription("Read the TV's current speaker volume"),
	)
	c.server.mcp.AddTool(getVolumeTool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		volume, err := c.tv.Media.GetVolume(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText(fmt.Sprintf("%d", volume)), nil
	})

	muteTool := mcp.NewTool("tv_set_mute",
		mcp.WithDescription("Mute or unmute the TV"),
		mcp.WithBoolean("mute", mcp.Required(), mcp.Description("true to mute, false to unmute")),
	)
	c.server.mcp.AddTool(muteTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mute := req.GetBool("mute", false)
		if err := c.tv.Media.SetMute(ctx, mute); err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText("mute state updated"), nil
	})
}

func (c *Client) registerChannelTools() {
	setChannelTool := mcp.NewTool("tv_set_channel",
		mcp.WithDescription("Switch to a channel by id"),
		mcp.WithString("channel_id", mcp.Required(), mcp.Description("Channel id from tv_get_current_channel")),
	)
	c.server.mcp.AddTool(setChannelTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		channelID, err := req.RequireString("channel_id")
		if err != nil {
			return mcp.NewToolResultError("channel_id is required"), err
		}
		if err := c.tv.Channel.SetChannel(ctx, channelID); err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText("channel changed"), nil
	})

	getCurrentChannelTool := mcp.NewTool("tv_get_current_channel",
		mcp.WithDescription("Read the TV's current channel"),
	)
	c.server.mcp.AddTool(getCurrentChannelTool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		channel, err := c.tv.Channel.GetCurrentChannel(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText(fmt.Sprintf("%v", channel)), nil
	})
}

func (c *Client) registerAppTools() {
	listAppsTool := mcp.NewTool("tv_list_apps",
		mcp.WithDescription("List every app installed on the TV"),
	)
	c.server.mcp.AddTool(listAppsTool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		apps, err := c.tv.Application.ListApps(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		names := make([]string, 0, len(apps))
		for _, app := range apps {
			names = append(names, fmt.Sprintf("%s (%s)", app.Title(), app.ID()))
		}
		return mcp.NewToolResultText(fmt.Sprintf("%v", names)), nil
	})

	launchAppTool := mcp.NewTool("tv_launch_app",
		mcp.WithDescription("Launch an app by id"),
		mcp.WithString("app_id", mcp.Required(), mcp.Description("App id from tv_list_apps")),
	)
	c.server.mcp.AddTool(launchAppTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		appID, err := req.RequireString("app_id")
		if err != nil {
			return mcp.NewToolResultError("app_id is required"), err
		}
		if err := c.tv.Application.LaunchApp(ctx, appID, ""); err != nil {
			return mcp.NewToolResultError(err.Error()), err
		}
		return mcp.NewToolResultText("app launched"), nil
	})
}
