package upstream

// Request bodies for the widget endpoints. Every body carries the
// account's configId and a placeholder token in additionalParams.

type additionalParams struct {
	Token string `json:"token"`
}

func newAdditionalParams() additionalParams {
	return additionalParams{Token: "-"}
}

type createSessionBody struct {
	ConfigID             string               `json:"configId"`
	AdditionalParams     additionalParams     `json:"additionalParams"`
	CreateSessionRequest createSessionRequest `json:"createSessionRequest"`
}

type createSessionRequest struct {
	Session sessionSpec `json:"session"`
}

type sessionSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type addContextFileBody struct {
	ConfigID              string                `json:"configId"`
	AdditionalParams      additionalParams      `json:"additionalParams"`
	AddContextFileRequest addContextFileRequest `json:"addContextFileRequest"`
}

type addContextFileRequest struct {
	Name         string `json:"name"`
	FileName     string `json:"fileName"`
	MimeType     string `json:"mimeType"`
	FileContents string `json:"fileContents"`
}

type streamAssistBody struct {
	ConfigID            string              `json:"configId"`
	AdditionalParams    additionalParams    `json:"additionalParams"`
	StreamAssistRequest streamAssistRequest `json:"streamAssistRequest"`
}

type streamAssistRequest struct {
	Session                string                  `json:"session"`
	Query                  query                   `json:"query"`
	Filter                 string                  `json:"filter"`
	FileIDs                []string                `json:"fileIds"`
	AnswerGenerationMode   string                  `json:"answerGenerationMode"`
	ToolsSpec              toolsSpec               `json:"toolsSpec"`
	LanguageCode           string                  `json:"languageCode"`
	UserMetadata           userMetadata            `json:"userMetadata"`
	AssistSkippingMode     string                  `json:"assistSkippingMode"`
	AssistGenerationConfig *assistGenerationConfig `json:"assistGenerationConfig,omitempty"`
}

type query struct {
	Parts []queryPart `json:"parts"`
}

type queryPart struct {
	Text string `json:"text"`
}

// toolsSpec enables grounding and generation tools; the empty objects are
// significant.
type toolsSpec struct {
	WebGroundingSpec    struct{} `json:"webGroundingSpec"`
	ToolRegistry        string   `json:"toolRegistry"`
	ImageGenerationSpec struct{} `json:"imageGenerationSpec"`
	VideoGenerationSpec struct{} `json:"videoGenerationSpec"`
}

type userMetadata struct {
	TimeZone string `json:"timeZone"`
}

type assistGenerationConfig struct {
	ModelID string `json:"modelId"`
}

type listFilesBody struct {
	ConfigID                       string                `json:"configId"`
	AdditionalParams               additionalParams      `json:"additionalParams"`
	ListSessionFileMetadataRequest listFileMetadataQuery `json:"listSessionFileMetadataRequest"`
}

type listFileMetadataQuery struct {
	Name   string `json:"name"`
	Filter string `json:"filter"`
}

// FileMetadata describes a file attached to an upstream session.
type FileMetadata struct {
	FileID   string
	FileName string
	MimeType string
}
