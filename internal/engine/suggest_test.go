package engine

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/netdoctor/netdoctor/internal/models"
)

var offlineSuggestions = []string{
	"You're currently offline. Reconnect to Wi-Fi or Ethernet.",
	"Restart your modem/router.",
	"Check with your ISP for outages.",
	"Try toggling airplane mode or rebooting your device.",
}

func TestAggregatorSuggest(t *testing.T) {
	Convey("Given the built-in tip pack", t, func() {
		agg, err := NewAggregator("", nil)
		So(err, ShouldBeNil)

		Convey("When there are no findings", func() {
			out := agg.Suggest(nil)

			Convey("Then a single stable message is returned", func() {
				So(out, ShouldResemble, []string{"Your network appears stable. No fixes are required."})
			})
		})

		Convey("When only low or ignored findings are present", func() {
			out := agg.Suggest([]models.Finding{
				{Issue: IssueConnectionUnavailable, Severity: models.SeverityLow, Recommendation: "x"},
				{Issue: IssueConnectionInfoFailed, Severity: models.SeverityMedium, Recommendation: "y"},
			})

			Convey("Then nothing is actionable", func() {
				So(out, ShouldResemble, []string{"Your network appears stable. No fixes are required."})
			})
		})

		Convey("When the device is offline", func() {
			out := agg.Suggest([]models.Finding{
				{Issue: "Moderate Latency", Severity: models.SeverityMedium, Recommendation: "ignored"},
				{Issue: IssueOffline, Severity: models.SeverityCritical, Recommendation: "reconnect"},
			})

			Convey("Then the fixed offline list is returned", func() {
				So(out, ShouldResemble, offlineSuggestions)
			})
		})

		Convey("When measurement failed", func() {
			out := agg.Suggest([]models.Finding{
				{Issue: IssueDNSProblem, Severity: models.SeverityHigh, Recommendation: "dns"},
				{Issue: IssueMeasurementFailed, Severity: models.SeverityCritical, Recommendation: "metrics"},
			})

			Convey("Then it is treated like being offline", func() {
				So(out, ShouldResemble, offlineSuggestions)
			})
		})

		Convey("When findings of every severity are present", func() {
			out := agg.Suggest([]models.Finding{
				{Issue: "Extreme Network Latency", Severity: models.SeverityCritical, Recommendation: "Switch to Ethernet and restart your router."},
				{Issue: "High Packet Loss", Severity: models.SeverityHigh, Recommendation: "Check cables, switch to Ethernet, and minimize interference."},
				{Issue: IssueDNSProblem, Severity: models.SeverityHigh, Recommendation: "Use CloudFlare DNS (1.1.1.1) or Google DNS (8.8.8.8)."},
				{Issue: IssueSlowConnection, Severity: models.SeverityHigh, Recommendation: "Switch to a faster network like Wi-Fi or 4G/5G."},
				{Issue: "Moderate Latency", Severity: models.SeverityMedium, Recommendation: "Pause background downloads or streaming apps."},
			})

			Convey("Then prefixed recommendations come first, then topic tips in rule order", func() {
				So(out, ShouldResemble, []string{
					"Urgent: Switch to Ethernet and restart your router.",
					"Important: Check cables, switch to Ethernet, and minimize interference.",
					"Important: Use CloudFlare DNS (1.1.1.1) or Google DNS (8.8.8.8).",
					"Important: Switch to a faster network like Wi-Fi or 4G/5G.",
					"Pause background downloads or streaming apps.",
					"Restart your router.",
					"Use a wired connection for better stability.",
					"Limit background data usage or streaming.",
					"Check router cables for damage.",
					"Avoid interference by moving closer to the router.",
					"Contact your ISP if issues persist.",
					"Change DNS to 1.1.1.1 or 8.8.8.8.",
					"Flush DNS cache on your system.",
					"Turn off battery saver mode.",
					"Update network drivers.",
				})
			})
		})

		Convey("When several findings trigger the same topic and share a recommendation", func() {
			out := agg.Suggest([]models.Finding{
				{Issue: "High Network Latency", Severity: models.SeverityHigh, Recommendation: "Same advice."},
				{Issue: "Moderate Latency", Severity: models.SeverityHigh, Recommendation: "Same advice."},
			})

			Convey("Then every string appears once", func() {
				So(out, ShouldResemble, []string{
					"Important: Same advice.",
					"Restart your router.",
					"Use a wired connection for better stability.",
					"Limit background data usage or streaming.",
				})
				seen := map[string]bool{}
				for _, s := range out {
					So(seen[s], ShouldBeFalse)
					seen[s] = true
				}
			})
		})

		Convey("When a low connection finding sits next to an actionable one", func() {
			out := agg.Suggest([]models.Finding{
				{Issue: "Extreme Network Latency", Severity: models.SeverityCritical, Recommendation: "Switch to Ethernet and restart your router."},
				{Issue: IssueConnectionUnavailable, Severity: models.SeverityLow, Recommendation: "Connection type could not be determined."},
			})

			Convey("Then the low finding does not trigger connection tips", func() {
				So(out, ShouldHaveLength, 4)
				So(out, ShouldNotContain, "Turn off battery saver mode.")
			})
		})
	})
}

func TestNewAggregatorFromFile(t *testing.T) {
	Convey("Given a custom tip pack on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "tips.yaml")
		err := os.WriteFile(path, []byte(`offline:
  match: [offline]
  suggestions: ["Plug the cable back in."]
stable: "All good."
topics:
  - id: wifi
    match: [latency]
    tips: ["Move closer to the access point."]
`), 0o644)
		So(err, ShouldBeNil)

		agg, err := NewAggregator(path, nil)
		So(err, ShouldBeNil)

		Convey("Then its messages replace the built-in ones", func() {
			So(agg.Suggest(nil), ShouldResemble, []string{"All good."})
			So(agg.Suggest([]models.Finding{{Issue: IssueOffline, Severity: models.SeverityCritical}}), ShouldResemble, []string{"Plug the cable back in."})
			So(agg.Suggest([]models.Finding{{Issue: "High Network Latency", Severity: models.SeverityHigh, Recommendation: "r"}}),
				ShouldResemble, []string{"Important: r", "Move closer to the access point."})
		})
	})

	Convey("Given a missing tip pack path", t, func() {
		agg, err := NewAggregator(filepath.Join(t.TempDir(), "absent.yaml"), nil)

		Convey("Then the built-in pack is used", func() {
			So(err, ShouldBeNil)
			So(agg.Suggest(nil), ShouldHaveLength, 1)
		})
	})

	Convey("Given a pack without offline suggestions", t, func() {
		_, err := ParseTipPack([]byte("stable: ok\n"))

		Convey("Then parsing fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
