// game/redact.go
package game

// RedactFor builds the view of a lobby that one recipient is allowed to
// see while a round is running: the recipient's own entry keeps its true
// secrets, every other player's IsImpostor, SecretLocation and SecretRole
// are stripped. The fan-out must call this once per recipient; a single
// shared payload would hand every member the impostor's identity.
func RedactFor(l Lobby, recipientID string) Lobby {
	out := l.clone()
	for i := range out.Players {
		if out.Players[i].ID == recipientID {
			continue
		}
		out.Players[i].IsImpostor = nil
		out.Players[i].SecretLocation = nil
		out.Players[i].SecretRole = nil
	}
	return out
}
