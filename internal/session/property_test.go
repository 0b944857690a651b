package session

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/stretchr/testify/require"
)

// genSession builds arbitrary-but-valid USF records.
func genSession() gopter.Gen {
	return gopter.CombineGens(
		gen.Identifier(),
		gen.AlphaString(),
		gen.IntRange(0, 20),
		gen.IntRange(0, 500),
	).Map(func(vals []interface{}) *Session {
		id := vals[0].(string)
		desc := vals[1].(string)
		steps := vals[2].(int)
		tokens := vals[3].(int)

		sess := NewSession(desc, "/w", PlatformCLI)
		sess.SessionID = "prop-" + id
		for i := 0; i < steps; i++ {
			role := "user"
			if i%2 == 1 {
				role = "assistant"
			}
			sess.AppendStep(Step{
				Timestamp: time.Now().UTC().Truncate(time.Second),
				Role:      role,
				Content:   desc,
				Tokens:    int64(tokens),
			})
		}
		sess.OrchestrationState.FlowCode = "S1P1"
		return sess
	})
}

func TestProperty_SessionRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60

	properties := gopter.NewProperties(parameters)
	properties.Property("save then load compares equal modulo updated_at", prop.ForAll(
		func(sess *Session) bool {
			if err := store.Save(sess); err != nil {
				return false
			}
			loaded, err := store.Load(sess.SessionID)
			if err != nil {
				return false
			}
			loaded.UpdatedAt = sess.UpdatedAt
			return sessionsEqual(sess, loaded)
		},
		genSession(),
	))
	properties.Property("token total equals the step sum", prop.ForAll(
		func(sess *Session) bool {
			var sum int64
			for _, step := range sess.ConversationHistory {
				sum += step.Tokens
			}
			return sess.Stats.TotalTokens == sum
		},
		genSession(),
	))
	properties.TestingRun(t)
}

func sessionsEqual(a, b *Session) bool {
	if a.SessionID != b.SessionID || a.Task != b.Task || a.Workspace != b.Workspace {
		return false
	}
	if a.OrchestrationState.FlowCode != b.OrchestrationState.FlowCode {
		return false
	}
	if len(a.ConversationHistory) != len(b.ConversationHistory) {
		return false
	}
	for i := range a.ConversationHistory {
		if a.ConversationHistory[i] != b.ConversationHistory[i] {
			return false
		}
	}
	return a.Stats == b.Stats
}
