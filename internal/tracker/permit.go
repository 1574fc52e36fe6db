package tracker

// Token identifies one granted background execution permit.
type Token struct {
	id string
}

// Permit models the platform grant that keeps the tracking loop alive while
// the process is backgrounded. Begin is called when a session starts and End
// when it stops; implementations must tolerate End with a zero token.
type Permit interface {
	Begin(name string) Token
	End(tok Token)
}

// NoopPermit satisfies Permit for environments with no background execution
// restrictions.
type NoopPermit struct{}

func (NoopPermit) Begin(string) Token { return Token{} }
func (NoopPermit) End(Token)          {}
