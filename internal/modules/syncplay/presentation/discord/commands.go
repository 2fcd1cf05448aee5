package discord

import "github.com/bwmarrin/discordgo"

// CommandName is the top-level slash command of the module.
const CommandName = "syncplay"

// Commands returns all slash commands for the syncplay module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandName,
			Description: "Follow a SyncPlay group in a voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "join",
					Description: "Join a SyncPlay group and play it in a voice channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "group",
							Description: "Id of the group to follow",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Voice channel to play in (defaults to your current channel)",
							Required:    false,
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildVoice,
								discordgo.ChannelTypeGuildStageVoice,
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leave",
					Description: "Stop following the group and leave the voice channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show the group queue",
				},
			},
		},
	}
}
