package eventstream_test

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fahd-noodleseed/memoire/pkg/eventstream"
)

func TestEventstream(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Eventstream Suite")
}

var _ = Describe("Event", func() {
	It("marshals MutationEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.MutationEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeFragmentCreated,
			EventID:       "evt_123",
			EmittedAt:     now,
			ProjectID:     "proj-1",
			FragmentIDs:   []string{"frag-1"},
			Source:        "curated_ingestion",
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("project_id"))
		Expect(got).To(HaveKey("fragment_ids"))
		Expect(got).To(HaveKey("source"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeFragmentCreated).To(Equal("memoire.fragment.created"))
		Expect(eventstream.EventTypeFragmentsDeleted).To(Equal("memoire.fragments.deleted"))
		Expect(eventstream.EventTypeContextCreated).To(Equal("memoire.context.created"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilEvent).To(MatchError("nil mutation event"))
	})
})
