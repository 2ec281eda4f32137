// Package topicmgr keeps the catalogue of pub/sub topics used by the chat
// engine, scoped as framework topics (transport, presence) or module topics
// (message destinations).
//
// Framework topics are defined by core services:
//
//	var OnlineUsers = topicmgr.DefineFramework(topicmgr.TopicConfig{
//		Name:        "presence.users.online",
//		Description: "Full snapshot of online identities",
//		Pattern:     "presence.users.online",
//	})
//
// Module topics carry a module name:
//
//	var Public = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "chat.public",
//		Module:      "chat",
//		Description: "Messages for every connected session",
//		Pattern:     "chat.public",
//	})
//
// Topics are registered with a Manager and can be listed for discovery:
//
//	topicmgr.Default().MustRegister(OnlineUsers)
//	for _, t := range topicmgr.Default().List() { ... }
package topicmgr
