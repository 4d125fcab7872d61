// Package session runs one seat of a replicated game.
//
// Every participant connects a Transport to the relay and runs either a Host
// or a Replica. The Host owns the only live game engine; Replicas hold no
// rules at all. Intents (bids, passes, discards, timeout reports) flow from
// Replicas to the Host, and authoritative state flows back as full snapshots
// that Replicas adopt wholesale.
//
// # Basic Usage
//
//	client, err := session.Dial("ws://relay:8080/ws", logger)
//	if err != nil {
//		return err
//	}
//	welcome, err := session.JoinRoom(client, roomCode, "anna")
//	if err != nil {
//		return err
//	}
//
//	replica, err := session.NewReplica(session.Config{
//		Transport: client,
//		Listener:  ui,
//		Logger:    logger,
//		RoomID:    welcome.RoomID,
//		PlayerID:  welcome.ParticipantID,
//	})
//	if err != nil {
//		return err
//	}
//	return replica.Run(ctx)
//
// # Delivery
//
// The relay redelivers on reconnect and fans every envelope back to its
// sender, so sessions deduplicate inbound envelopes by their (type,
// timestamp) key and stamp outbound envelopes with strictly increasing
// timestamps.
//
// # Turn Timeouts
//
// Every participant arms the same turn timer. When it fires, Replicas report
// a timeout intent and the Host converts the first valid report into an
// implicit pass; later reports carry a stale turn index and are dropped.
package session
