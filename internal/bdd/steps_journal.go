package bdd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/chirino/journal-service/internal/testutil/cucumber"
	"github.com/cucumber/godog"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		j := &journalSteps{s: s}

		// Action items
		ctx.Step(`^I save action items from conversation "([^"]*)":$`, j.iSaveActionItems)
		ctx.Step(`^I list action items$`, j.iListActionItems)
		ctx.Step(`^I list (completed|open) action items$`, j.iListActionItemsByState)
		ctx.Step(`^I get action item "([^"]*)"$`, j.iGetActionItem)
		ctx.Step(`^I complete action item "([^"]*)"$`, j.iCompleteActionItem)

		// Memories
		ctx.Step(`^I create a manual memory "([^"]*)"$`, j.iCreateAManualMemory)
		ctx.Step(`^I save memories from conversation "([^"]*)":$`, j.iSaveMemories)
		ctx.Step(`^I list memories$`, j.iListMemories)
		ctx.Step(`^I (approve|reject) memory "([^"]*)"$`, j.iReviewMemory)

		// Conversations
		ctx.Step(`^I get conversation "([^"]*)"$`, j.iGetConversation)
		ctx.Step(`^I list conversations$`, j.iListConversations)
		ctx.Step(`^I count conversations$`, j.iCountConversations)

		// Focus
		ctx.Step(`^I record focus sessions:$`, j.iRecordFocusSessions)
		ctx.Step(`^I request focus stats for today$`, j.iRequestFocusStatsForToday)
		ctx.Step(`^I request focus stats for "([^"]*)"$`, j.iRequestFocusStats)

		// Apps
		ctx.Step(`^I list apps$`, j.iListApps)
		ctx.Step(`^I get app "([^"]*)"$`, j.iGetApp)
		ctx.Step(`^I enable app "([^"]*)"$`, j.iEnableApp)
		ctx.Step(`^I rate app "([^"]*)" with (\d+) stars? saying "([^"]*)"$`, j.iRateApp)

		// Emails
		ctx.Step(`^I store the inbound email:$`, j.iStoreTheInboundEmail)
		ctx.Step(`^I count unread emails$`, j.iCountUnreadEmails)
		ctx.Step(`^I mark email "([^"]*)" as read$`, j.iMarkEmailRead)

		// Advice
		ctx.Step(`^I create advice:$`, j.iCreateAdvice)
		ctx.Step(`^I list advice$`, j.iListAdvice)
		ctx.Step(`^I dismiss advice "([^"]*)"$`, j.iDismissAdvice)
		ctx.Step(`^I mark all advice read$`, j.iMarkAllAdviceRead)

		// Settings
		ctx.Step(`^I get my daily summary settings$`, j.iGetDailySummarySettings)
		ctx.Step(`^I update my daily summary settings:$`, j.iUpdateDailySummarySettings)
		ctx.Step(`^I get my profile$`, j.iGetMyProfile)
	})
}

type journalSteps struct {
	s *cucumber.TestScenario
}

func (j *journalSteps) store() registrystore.JournalStore { return store(j.s) }
func (j *journalSteps) uid() string                       { return uid(j.s) }

func (j *journalSteps) expandJSON(body *godog.DocString, into any) error {
	content, err := j.s.Expand(body.Content)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(content), into)
}

func (j *journalSteps) iSaveActionItems(conversationID string, body *godog.DocString) error {
	var items []model.NewActionItem
	if err := j.expandJSON(body, &items); err != nil {
		return err
	}
	return j.s.SetJSON(j.store().SaveActionItems(context.Background(), j.uid(), conversationID, items), nil)
}

func (j *journalSteps) iListActionItems() error {
	return j.s.SetJSON(j.store().ListActionItems(context.Background(), j.uid(), registrystore.ActionItemFilter{Limit: 100}))
}

func (j *journalSteps) iListActionItemsByState(state string) error {
	completed := state == "completed"
	return j.s.SetJSON(j.store().ListActionItems(context.Background(), j.uid(), registrystore.ActionItemFilter{Limit: 100, Completed: &completed}))
}

func (j *journalSteps) iGetActionItem(id string) error {
	id, err := j.s.Expand(id)
	if err != nil {
		return err
	}
	return j.s.SetJSON(j.store().GetActionItem(context.Background(), j.uid(), id))
}

func (j *journalSteps) iCompleteActionItem(id string) error {
	id, err := j.s.Expand(id)
	if err != nil {
		return err
	}
	done := true
	return j.s.SetJSON(j.store().UpdateActionItem(context.Background(), j.uid(), id, model.ActionItemUpdate{Completed: &done}))
}

func (j *journalSteps) iCreateAManualMemory(content string) error {
	return j.s.SetJSON(j.store().CreateManualMemory(context.Background(), j.uid(), content, model.VisibilityPrivate))
}

func (j *journalSteps) iSaveMemories(conversationID string, body *godog.DocString) error {
	var items []model.ExtractedMemory
	if err := j.expandJSON(body, &items); err != nil {
		return err
	}
	return j.s.SetJSON(j.store().SaveMemories(context.Background(), j.uid(), conversationID, items), nil)
}

func (j *journalSteps) iListMemories() error {
	return j.s.SetJSON(j.store().ListMemories(context.Background(), j.uid(), 100))
}

func (j *journalSteps) iReviewMemory(verdict, id string) error {
	id, err := j.s.Expand(id)
	if err != nil {
		return err
	}
	return j.s.SetJSON(nil, j.store().ReviewMemory(context.Background(), j.uid(), id, verdict == "approve"))
}

func (j *journalSteps) iGetConversation(id string) error {
	return j.s.SetJSON(j.store().GetConversation(context.Background(), j.uid(), id))
}

func (j *journalSteps) iListConversations() error {
	return j.s.SetJSON(j.store().ListConversations(context.Background(), j.uid(), registrystore.ConversationFilter{Limit: 100}))
}

func (j *journalSteps) iCountConversations() error {
	return j.s.SetJSON(j.store().CountConversations(context.Background(), j.uid(), registrystore.ConversationFilter{}))
}

// iRecordFocusSessions reads a table with status, app_or_site and an
// optional duration_seconds column.
func (j *journalSteps) iRecordFocusSessions(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("expected a header row and at least one session")
	}
	header := map[string]int{}
	for i, c := range table.Rows[0].Cells {
		header[c.Value] = i
	}
	for _, row := range table.Rows[1:] {
		cell := func(name string) string {
			if i, ok := header[name]; ok {
				return row.Cells[i].Value
			}
			return ""
		}
		in := model.NewFocusSession{
			Status:    model.FocusStatus(cell("status")),
			AppOrSite: cell("app_or_site"),
		}
		if d := cell("duration_seconds"); d != "" {
			secs, err := strconv.ParseInt(d, 10, 64)
			if err != nil {
				return err
			}
			in.DurationSeconds = &secs
		}
		if _, err := j.store().CreateFocusSession(context.Background(), j.uid(), in); err != nil {
			return err
		}
	}
	return nil
}

func (j *journalSteps) iRequestFocusStatsForToday() error {
	return j.iRequestFocusStats(time.Now().UTC().Format("2006-01-02"))
}

func (j *journalSteps) iRequestFocusStats(date string) error {
	return j.s.SetJSON(j.store().FocusStats(context.Background(), j.uid(), date))
}

func (j *journalSteps) iListApps() error {
	return j.s.SetJSON(j.store().ListApps(context.Background(), j.uid(), registrystore.AppFilter{Limit: 100}))
}

func (j *journalSteps) iGetApp(id string) error {
	return j.s.SetJSON(j.store().GetApp(context.Background(), j.uid(), id))
}

func (j *journalSteps) iEnableApp(id string) error {
	return j.s.SetJSON(nil, j.store().EnableApp(context.Background(), j.uid(), id))
}

func (j *journalSteps) iRateApp(id string, score int, text string) error {
	return j.s.SetJSON(j.store().SubmitAppReview(context.Background(), j.uid(), id, score, text))
}

func (j *journalSteps) iStoreTheInboundEmail(body *godog.DocString) error {
	var e model.InboundEmail
	if err := j.expandJSON(body, &e); err != nil {
		return err
	}
	return j.s.SetJSON(nil, j.store().CreateEmail(context.Background(), &e))
}

func (j *journalSteps) iCountUnreadEmails() error {
	return j.s.SetJSON(j.store().CountUnreadEmails(context.Background()))
}

func (j *journalSteps) iMarkEmailRead(id string) error {
	return j.s.SetJSON(nil, j.store().MarkEmailRead(context.Background(), id, true))
}

func (j *journalSteps) iCreateAdvice(body *godog.DocString) error {
	var in model.NewAdvice
	if err := j.expandJSON(body, &in); err != nil {
		return err
	}
	return j.s.SetJSON(j.store().CreateAdvice(context.Background(), j.uid(), in))
}

func (j *journalSteps) iListAdvice() error {
	return j.s.SetJSON(j.store().ListAdvice(context.Background(), j.uid(), registrystore.AdviceFilter{Limit: 100}))
}

func (j *journalSteps) iDismissAdvice(id string) error {
	id, err := j.s.Expand(id)
	if err != nil {
		return err
	}
	dismissed := true
	return j.s.SetJSON(j.store().UpdateAdvice(context.Background(), j.uid(), id, model.AdviceUpdate{IsDismissed: &dismissed}))
}

func (j *journalSteps) iMarkAllAdviceRead() error {
	return j.s.SetJSON(j.store().MarkAllAdviceRead(context.Background(), j.uid()))
}

func (j *journalSteps) iGetDailySummarySettings() error {
	return j.s.SetJSON(j.store().GetDailySummarySettings(context.Background(), j.uid()))
}

func (j *journalSteps) iUpdateDailySummarySettings(body *godog.DocString) error {
	var u model.DailySummaryUpdate
	if err := j.expandJSON(body, &u); err != nil {
		return err
	}
	return j.s.SetJSON(j.store().UpdateDailySummarySettings(context.Background(), j.uid(), u))
}

func (j *journalSteps) iGetMyProfile() error {
	return j.s.SetJSON(j.store().GetUserProfile(context.Background(), j.uid()))
}
