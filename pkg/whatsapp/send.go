package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sunshineplan/imgconv"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
)

func WhatsAppSendText(ctx context.Context, rjid string, message string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		Conversation: proto.String(message),
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "text", message, msgContent)
	return msgExtra.ID, nil
}

// WhatsAppSendReply sends a text message quoting an earlier message. The
// quoted message must still be in the message cache.
func WhatsAppSendReply(ctx context.Context, rjid string, msgid string, message string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	quoted, ok := messageCache.Get(remoteJID.String(), msgid)
	if !ok {
		return "", ErrMessageNotCached
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	participant := quoted.SenderJID
	if quoted.FromMe {
		participant = client.Store.ID.ToNonAD().String()
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(message),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(msgid),
				Participant:   proto.String(participant),
				QuotedMessage: quoted.Message,
			},
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "text", message, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendLocation(ctx context.Context, rjid string, latitude float64, longitude float64) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		LocationMessage: &waE2E.LocationMessage{
			DegreesLatitude:  proto.Float64(latitude),
			DegreesLongitude: proto.Float64(longitude),
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "location", "", msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendDocument(ctx context.Context, rjid string, documentBytes []byte, documentType string, documentName string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	WhatsAppPresence(ctx, true)
	WhatsAppComposeStatus(ctx, remoteJID, true, false)
	defer func() {
		WhatsAppComposeStatus(ctx, remoteJID, false, false)
		WhatsAppPresence(ctx, false)
	}()
	documentUploaded, err := client.Upload(ctx, documentBytes, whatsmeow.MediaDocument)
	if err != nil {
		return "", errors.New("Error While Uploading Media to WhatsApp Server")
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			URL:           proto.String(documentUploaded.URL),
			DirectPath:    proto.String(documentUploaded.DirectPath),
			Mimetype:      proto.String(documentType),
			FileName:      proto.String(documentName),
			FileLength:    proto.Uint64(documentUploaded.FileLength),
			FileSHA256:    documentUploaded.FileSHA256,
			FileEncSHA256: documentUploaded.FileEncSHA256,
			MediaKey:      documentUploaded.MediaKey,
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "document", documentName, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendImage(ctx context.Context, rjid string, imageBytes []byte, imageType string, imageCaption string, isViewOnce bool) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	WhatsAppPresence(ctx, true)
	WhatsAppComposeStatus(ctx, remoteJID, true, false)
	defer func() {
		WhatsAppComposeStatus(ctx, remoteJID, false, false)
		WhatsAppPresence(ctx, false)
	}()
	isWhatsAppImageConvertWebP, err := env.GetEnvBool("WHATSAPP_MEDIA_IMAGE_CONVERT_WEBP")
	if err != nil {
		isWhatsAppImageConvertWebP = false
	}
	if imageType == "image/webp" && isWhatsAppImageConvertWebP {
		imgConvDecode, err := imgconv.Decode(bytes.NewReader(imageBytes))
		if err != nil {
			return "", errors.New("Error While Decoding Convert Image Stream")
		}
		imgConvEncode := new(bytes.Buffer)
		err = imgconv.Write(imgConvEncode, imgConvDecode, &imgconv.FormatOption{Format: imgconv.PNG})
		if err != nil {
			return "", errors.New("Error While Encoding Convert Image Stream")
		}
		imageBytes = imgConvEncode.Bytes()
		imageType = "image/png"
	}
	isWhatsAppImageCompression, err := env.GetEnvBool("WHATSAPP_MEDIA_IMAGE_COMPRESSION")
	if err != nil {
		isWhatsAppImageCompression = false
	}
	if isWhatsAppImageCompression {
		imgResizeDecode, err := imgconv.Decode(bytes.NewReader(imageBytes))
		if err != nil {
			return "", errors.New("Error While Decoding Resize Image Stream")
		}
		imgResizeEncode := new(bytes.Buffer)
		err = imgconv.Write(imgResizeEncode,
			imgconv.Resize(imgResizeDecode, &imgconv.ResizeOption{Width: 1024}),
			&imgconv.FormatOption{})
		if err != nil {
			return "", errors.New("Error While Encoding Resize Image Stream")
		}
		imageBytes = imgResizeEncode.Bytes()
	}
	imgThumbDecode, err := imgconv.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", errors.New("Error While Decoding Thumbnail Image Stream")
	}
	imgThumbEncode := new(bytes.Buffer)
	err = imgconv.Write(imgThumbEncode,
		imgconv.Resize(imgThumbDecode, &imgconv.ResizeOption{Width: 72}),
		&imgconv.FormatOption{Format: imgconv.JPEG})
	if err != nil {
		return "", errors.New("Error While Encoding Thumbnail Image Stream")
	}
	imageUploaded, err := client.Upload(ctx, imageBytes, whatsmeow.MediaImage)
	if err != nil {
		return "", errors.New("Error While Uploading Media to WhatsApp Server")
	}
	imageThumbUploaded, err := client.Upload(ctx, imgThumbEncode.Bytes(), whatsmeow.MediaLinkThumbnail)
	if err != nil {
		return "", errors.New("Error while Uploading Image Thumbnail to WhatsApp Server")
	}
	msgExtra := whatsmeow.SendRequestExtra{
		ID: client.GenerateMessageID(),
	}
	msgContent := &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			URL:                 proto.String(imageUploaded.URL),
			DirectPath:          proto.String(imageUploaded.DirectPath),
			Mimetype:            proto.String(imageType),
			Caption:             proto.String(imageCaption),
			FileLength:          proto.Uint64(imageUploaded.FileLength),
			FileSHA256:          imageUploaded.FileSHA256,
			FileEncSHA256:       imageUploaded.FileEncSHA256,
			MediaKey:            imageUploaded.MediaKey,
			JPEGThumbnail:       imgThumbEncode.Bytes(),
			ThumbnailDirectPath: &imageThumbUploaded.DirectPath,
			ThumbnailSHA256:     imageThumbUploaded.FileSHA256,
			ThumbnailEncSHA256:  imageThumbUploaded.FileEncSHA256,
			ViewOnce:            proto.Bool(isViewOnce),
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "image", imageCaption, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendAudio(ctx context.Context, rjid string, audioBytes []byte, audioType string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	WhatsAppComposeStatus(ctx, remoteJID, true, true)
	defer WhatsAppComposeStatus(ctx, remoteJID, false, true)
	audioUploaded, err := client.Upload(ctx, audioBytes, whatsmeow.MediaAudio)
	if err != nil {
		return "", errors.New("Error While Uploading Media to WhatsApp Server")
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		AudioMessage: &waE2E.AudioMessage{
			URL:           proto.String(audioUploaded.URL),
			DirectPath:    proto.String(audioUploaded.DirectPath),
			Mimetype:      proto.String(audioType),
			FileLength:    proto.Uint64(audioUploaded.FileLength),
			FileSHA256:    audioUploaded.FileSHA256,
			FileEncSHA256: audioUploaded.FileEncSHA256,
			MediaKey:      audioUploaded.MediaKey,
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "audio", "", msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendVideo(ctx context.Context, rjid string, videoBytes []byte, videoType string, videoCaption string, isViewOnce bool) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	WhatsAppPresence(ctx, true)
	WhatsAppComposeStatus(ctx, remoteJID, true, false)
	defer func() {
		WhatsAppComposeStatus(ctx, remoteJID, false, false)
		WhatsAppPresence(ctx, false)
	}()
	videoUploaded, err := client.Upload(ctx, videoBytes, whatsmeow.MediaVideo)
	if err != nil {
		return "", errors.New("Error While Uploading Media to WhatsApp Server")
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		VideoMessage: &waE2E.VideoMessage{
			URL:           proto.String(videoUploaded.URL),
			DirectPath:    proto.String(videoUploaded.DirectPath),
			Mimetype:      proto.String(videoType),
			Caption:       proto.String(videoCaption),
			FileLength:    proto.Uint64(videoUploaded.FileLength),
			FileSHA256:    videoUploaded.FileSHA256,
			FileEncSHA256: videoUploaded.FileEncSHA256,
			MediaKey:      videoUploaded.MediaKey,
			ViewOnce:      proto.Bool(isViewOnce),
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "video", videoCaption, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendSticker(ctx context.Context, rjid string, stickerBytes []byte) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	WhatsAppPresence(ctx, true)
	WhatsAppComposeStatus(ctx, remoteJID, true, false)
	defer func() {
		WhatsAppComposeStatus(ctx, remoteJID, false, false)
		WhatsAppPresence(ctx, false)
	}()
	stickerConvDecode, err := imgconv.Decode(bytes.NewReader(stickerBytes))
	if err != nil {
		return "", errors.New("Error While Decoding Convert Sticker Stream")
	}
	stickerConvEncode := new(bytes.Buffer)
	err = imgconv.Write(stickerConvEncode,
		imgconv.Resize(stickerConvDecode, &imgconv.ResizeOption{Width: 512, Height: 512}),
		&imgconv.FormatOption{Format: imgconv.WEBP})
	if err != nil {
		return "", errors.New("Error While Encoding Convert Sticker Stream")
	}
	stickerUploaded, err := client.Upload(ctx, stickerConvEncode.Bytes(), whatsmeow.MediaImage)
	if err != nil {
		return "", errors.New("Error While Uploading Media to WhatsApp Server")
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		StickerMessage: &waE2E.StickerMessage{
			URL:           proto.String(stickerUploaded.URL),
			DirectPath:    proto.String(stickerUploaded.DirectPath),
			Mimetype:      proto.String("image/webp"),
			FileLength:    proto.Uint64(stickerUploaded.FileLength),
			FileSHA256:    stickerUploaded.FileSHA256,
			FileEncSHA256: stickerUploaded.FileEncSHA256,
			MediaKey:      stickerUploaded.MediaKey,
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "sticker", "", msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendContact(ctx context.Context, rjid string, contactName string, contactNumber string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	contactNumber = WhatsAppDecomposeJID(contactNumber)
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgVCard := fmt.Sprintf("BEGIN:VCARD\nVERSION:3.0\nN:;%v;;;\nFN:%v\nTEL;type=CELL;waid=%v:+%v\nEND:VCARD",
		contactName, contactName, contactNumber, contactNumber)
	msgContent := &waE2E.Message{
		ContactMessage: &waE2E.ContactMessage{
			DisplayName: proto.String(contactName),
			Vcard:       proto.String(msgVCard),
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "contact", contactName, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppSendLink(ctx context.Context, rjid string, linkCaption string, linkURL string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}

	var urlTitle, urlDescription string

	urlRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, linkURL, nil)
	if err != nil {
		return "", err
	}
	urlResponse, err := http.DefaultClient.Do(urlRequest)
	if err != nil {
		return "", err
	}
	defer urlResponse.Body.Close()

	if urlResponse.StatusCode != http.StatusOK {
		return "", errors.New("Error While Fetching URL Metadata")
	}

	docData, err := goquery.NewDocumentFromReader(urlResponse.Body)
	if err != nil {
		return "", err
	}
	docData.Find("title").Each(func(index int, element *goquery.Selection) {
		urlTitle = element.Text()
	})
	docData.Find("meta[name='description']").Each(func(index int, element *goquery.Selection) {
		urlDescription, _ = element.Attr("content")
	})

	msgText := linkURL
	if len(strings.TrimSpace(linkCaption)) > 0 {
		msgText = fmt.Sprintf("%s\n%s", linkCaption, linkURL)
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(msgText),
			Title:       proto.String(urlTitle),
			MatchedText: proto.String(linkURL),
			Description: proto.String(urlDescription),
		},
	}
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "link", msgText, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppCreatePoll(ctx context.Context, rjid string, question string, options []string, multiAnswer bool) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	selectableCount := 1
	if multiAnswer {
		selectableCount = len(options)
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	msgContent := client.BuildPollCreation(question, options, selectableCount)
	resp, err := client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	cacheSentMessage(msgExtra.ID, remoteJID, resp.Timestamp, "poll", question, msgContent)
	return msgExtra.ID, nil
}

// WhatsAppVotePoll votes on a poll that is still in the message cache. The
// cached entry carries everything needed to rebuild the poll message info.
func WhatsAppVotePoll(ctx context.Context, rjid string, pollID string, options []string) (string, error) {
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	remoteJID, err := WhatsAppCheckJID(ctx, rjid)
	if err != nil {
		return "", err
	}
	cached, ok := messageCache.Get(remoteJID.String(), pollID)
	if !ok {
		return "", ErrMessageNotCached
	}
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}
	senderJID, err := types.ParseJID(cached.SenderJID)
	if err != nil {
		return "", err
	}
	pollInfo := types.MessageInfo{
		MessageSource: types.MessageSource{
			Chat:     remoteJID,
			Sender:   senderJID,
			IsFromMe: cached.FromMe,
			IsGroup:  cached.IsGroup,
		},
		ID:        pollID,
		Timestamp: cached.Timestamp,
	}
	msgContent, err := client.BuildPollVote(ctx, &pollInfo, options)
	if err != nil {
		return "", err
	}
	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	_, err = client.SendMessage(ctx, remoteJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

// cacheSentMessage records an outbound message so revoke, edit, forward and
// poll voting can find it later. Inbound messages are cached by the event
// handler instead.
func cacheSentMessage(msgid string, remoteJID types.JID, sentAt time.Time, mediaType string, text string, msgContent *waE2E.Message) {
	client, err := currentClient()
	if err != nil {
		return
	}
	ownJID := ""
	if client.Store.ID != nil {
		ownJID = client.Store.ID.ToNonAD().String()
	}
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	messageCache.Add(&CachedMessage{
		MessageID: msgid,
		ChatJID:   remoteJID.String(),
		SenderJID: ownJID,
		Timestamp: sentAt,
		FromMe:    true,
		IsGroup:   remoteJID.Server == types.GroupServer,
		MediaType: mediaType,
		Text:      text,
		Message:   msgContent,
	})
}
