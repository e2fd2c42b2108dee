package bot

import (
	"encoding/json"
)

// userContext tracks the multi-step command a user is in. Only the command name and its
// saved state survive a restart; the command itself is rebuilt by name.
type userContext struct {
	chatID          int64
	curCommand      command
	curCommandName  string
	curCommandState []byte
}

func newUserContext(chatID int64) *userContext {
	return &userContext{chatID: chatID}
}

func (u *userContext) RunCommand(command command, name string) {
	u.setCommand(command, name)
	u.curCommand.Run()
}

// ResumeCommand attaches a command rebuilt after restart without sending its first prompt again.
func (u *userContext) ResumeCommand(command command) {
	u.setCommand(command, u.curCommandName)
}

func (u *userContext) HasRunningCommand() bool {
	return u.curCommand != nil
}

func (u *userContext) OnUserInput(input string) {
	u.curCommand.OnUserInput(input)
}

type savedUserContext struct {
	ChatID          int64  `json:"chatID"`
	CurCommandName  string `json:"curCommandName"`
	CurCommandState []byte `json:"curCommandState"`
}

func (u *userContext) MarshalJSON() ([]byte, error) {

	saved := savedUserContext{ChatID: u.chatID, CurCommandName: u.curCommandName}
	if saveableCmd, ok := u.curCommand.(saveable); ok {
		state, err := saveableCmd.SaveState()
		if err != nil {
			return nil, err
		}
		saved.CurCommandState = state
	}

	return json.Marshal(saved)
}

func (u *userContext) UnmarshalJSON(data []byte) error {

	var saved savedUserContext
	if err := json.Unmarshal(data, &saved); err != nil {
		return err
	}

	u.chatID = saved.ChatID
	u.curCommandName = saved.CurCommandName
	u.curCommandState = saved.CurCommandState
	return nil
}

func (u *userContext) setCommand(command command, name string) {
	u.curCommand = command
	u.curCommandName = name
	u.curCommand.WithFinishCallback(func() {
		u.curCommand = nil
		u.curCommandName = ""
		u.curCommandState = nil
	})
	u.curCommand.WithKeyboardOnFinalMessage(defaultReplyKeyboard())
}
